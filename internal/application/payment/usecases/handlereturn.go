package usecases

import (
	"context"
	"errors"
	"net/url"

	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/domain/order"
	"lotuspay/internal/shared/logger"
)

// Coarse statuses carried back to the shop frontend. The browser never sees
// raw gateway fields.
const (
	ReturnStatusSuccess = "success"
	ReturnStatusFailed  = "failed"
	ReturnStatusError   = "error"
)

// ReturnRedirect is what the HTTP layer turns into the browser redirect.
type ReturnRedirect struct {
	Status  string
	Amount  int64
	Message string
}

// HandleReturnUseCase processes the gateway's browser redirect back to the
// merchant. Every branch, including tamper and storage failure, terminates
// in a redirect; nothing here may surface as a crash to the customer.
type HandleReturnUseCase struct {
	gateway  paymentgateway.PaymentGateway
	settleUC *SettleOrderUseCase
	logger   logger.Interface
}

func NewHandleReturnUseCase(
	gateway paymentgateway.PaymentGateway,
	settleUC *SettleOrderUseCase,
	logger logger.Interface,
) *HandleReturnUseCase {
	return &HandleReturnUseCase{
		gateway:  gateway,
		settleUC: settleUC,
		logger:   logger,
	}
}

func (uc *HandleReturnUseCase) Execute(ctx context.Context, values url.Values) ReturnRedirect {
	data, err := uc.gateway.VerifyCallback(values)
	if err != nil {
		// Signature and malformed-payload rejections look identical to the
		// user: which field mismatched is never revealed.
		uc.logger.Warnw("rejected payment return", "error", err)
		return ReturnRedirect{Status: ReturnStatusError, Message: "invalid payment response"}
	}

	result, err := uc.settleUC.Execute(ctx, SettleOrderCommand{
		OrderNo:       data.OrderNo,
		GatewayTxnRef: data.GatewayTxnRef,
		ResponseCode:  data.ResponseCode,
		PaidAmount:    data.Amount,
	})
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return ReturnRedirect{Status: ReturnStatusError, Message: "order not found"}
		}
		uc.logger.Errorw("settlement failed on payment return", "order_no", data.OrderNo, "error", err)
		return ReturnRedirect{Status: ReturnStatusError, Message: "payment processing failed, please try again"}
	}

	switch result.Outcome {
	case OutcomePaid:
		return ReturnRedirect{Status: ReturnStatusSuccess, Amount: data.Amount}
	case OutcomeAlreadyProcessed:
		// The IPN may have won the race; report the terminal status it left.
		if result.PaymentStatus.IsPaid() {
			return ReturnRedirect{Status: ReturnStatusSuccess, Amount: data.Amount}
		}
		return ReturnRedirect{Status: ReturnStatusFailed, Message: "payment was not completed"}
	default:
		return ReturnRedirect{Status: ReturnStatusFailed, Message: "payment was not completed"}
	}
}
