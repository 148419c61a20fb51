package usecases

import (
	"context"
	"errors"
	"fmt"

	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/domain/order"
	"lotuspay/internal/shared/logger"
)

type CreatePaymentURLCommand struct {
	OrderNo  string
	ClientIP string
	Locale   string
	BankCode string
}

type CreatePaymentURLResult struct {
	PaymentURL string
}

// CreatePaymentURLUseCase builds the signed redirect URL for a pending order.
// The gateway is never contacted; it sees the parameters only when the
// customer's browser follows the URL.
type CreatePaymentURLUseCase struct {
	orderRepo order.Repository
	gateway   paymentgateway.PaymentGateway
	logger    logger.Interface
}

func NewCreatePaymentURLUseCase(
	orderRepo order.Repository,
	gateway paymentgateway.PaymentGateway,
	logger logger.Interface,
) *CreatePaymentURLUseCase {
	return &CreatePaymentURLUseCase{
		orderRepo: orderRepo,
		gateway:   gateway,
		logger:    logger,
	}
}

func (uc *CreatePaymentURLUseCase) Execute(ctx context.Context, cmd CreatePaymentURLCommand) (*CreatePaymentURLResult, error) {
	ord, err := uc.orderRepo.GetByOrderNo(ctx, cmd.OrderNo)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !ord.IsPayable() {
		uc.logger.Warnw("payment url requested for non-payable order",
			"order_no", cmd.OrderNo,
			"payment_status", ord.PaymentStatus().String(),
		)
		return nil, order.ErrNotPayable
	}

	paymentURL, err := uc.gateway.BuildPaymentURL(paymentgateway.PaymentURLRequest{
		OrderNo:  ord.OrderNo(),
		Amount:   ord.Amount(),
		ClientIP: cmd.ClientIP,
		Locale:   cmd.Locale,
		BankCode: cmd.BankCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build payment url: %w", err)
	}

	return &CreatePaymentURLResult{PaymentURL: paymentURL}, nil
}
