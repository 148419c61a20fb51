package usecases

import (
	"context"
	"errors"
	"net/url"

	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/domain/order"
	"lotuspay/internal/shared/logger"
)

// Acknowledgement codes the gateway understands. Anything other than 00 and
// 02 makes the gateway retry the notification; 99 is reserved for transient
// failures where a retry can actually succeed.
const (
	IPNCodeSuccess          = "00"
	IPNCodeOrderNotFound    = "01"
	IPNCodeAlreadyConfirmed = "02"
	IPNCodeInvalidAmount    = "04"
	IPNCodeInvalidSignature = "97"
	IPNCodeUnknownError     = "99"
)

// IPNResponse is the machine-readable acknowledgement body. Field names are
// fixed by the gateway protocol.
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// HandleIPNUseCase processes the gateway's server-to-server notification,
// which may arrive zero or more times per transaction and may race the
// browser return for the same order.
type HandleIPNUseCase struct {
	gateway  paymentgateway.PaymentGateway
	settleUC *SettleOrderUseCase
	logger   logger.Interface
}

func NewHandleIPNUseCase(
	gateway paymentgateway.PaymentGateway,
	settleUC *SettleOrderUseCase,
	logger logger.Interface,
) *HandleIPNUseCase {
	return &HandleIPNUseCase{
		gateway:  gateway,
		settleUC: settleUC,
		logger:   logger,
	}
}

func (uc *HandleIPNUseCase) Execute(ctx context.Context, values url.Values) IPNResponse {
	data, err := uc.gateway.VerifyCallback(values)
	if err != nil {
		// Malformed payloads are acknowledged the same as bad signatures:
		// retrying an unverifiable notification cannot help.
		uc.logger.Warnw("rejected payment notification", "error", err)
		return IPNResponse{RspCode: IPNCodeInvalidSignature, Message: "Invalid signature"}
	}

	result, err := uc.settleUC.Execute(ctx, SettleOrderCommand{
		OrderNo:       data.OrderNo,
		GatewayTxnRef: data.GatewayTxnRef,
		ResponseCode:  data.ResponseCode,
		PaidAmount:    data.Amount,
	})
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return IPNResponse{RspCode: IPNCodeOrderNotFound, Message: "Order not found"}
		}
		// Transient storage trouble: answer non-success so the gateway
		// retries once storage recovers.
		uc.logger.Errorw("settlement failed on payment notification", "order_no", data.OrderNo, "error", err)
		return IPNResponse{RspCode: IPNCodeUnknownError, Message: "Unknown error"}
	}

	switch result.Outcome {
	case OutcomePaid, OutcomeFailed:
		// A recorded decline is a processed notification too.
		return IPNResponse{RspCode: IPNCodeSuccess, Message: "Success"}
	case OutcomeAmountMismatch:
		return IPNResponse{RspCode: IPNCodeInvalidAmount, Message: "Invalid amount"}
	case OutcomeAlreadyProcessed:
		return IPNResponse{RspCode: IPNCodeAlreadyConfirmed, Message: "Order already confirmed"}
	default:
		return IPNResponse{RspCode: IPNCodeUnknownError, Message: "Unknown error"}
	}
}
