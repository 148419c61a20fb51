package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/domain/order"
	vo "lotuspay/internal/domain/order/valueobjects"
	"lotuspay/internal/shared/biztime"

	"github.com/stretchr/testify/mock"
)

func TestCreatePaymentURL_Success(t *testing.T) {
	repo := new(mockOrderRepo)
	repo.On("GetByOrderNo", mock.Anything, "A1").Return(pendingTestOrder(t, "A1", 500000), nil)

	gateway := new(mockGateway)
	gateway.On("BuildPaymentURL", paymentgateway.PaymentURLRequest{
		OrderNo:  "A1",
		Amount:   500000,
		ClientIP: "203.0.113.7",
		Locale:   "vn",
	}).Return("https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_Amount=50000000", nil)

	uc := NewCreatePaymentURLUseCase(repo, gateway, testLogger())

	result, err := uc.Execute(context.Background(), CreatePaymentURLCommand{
		OrderNo:  "A1",
		ClientIP: "203.0.113.7",
		Locale:   "vn",
	})
	require.NoError(t, err)
	assert.Contains(t, result.PaymentURL, "vnp_Amount=50000000")
	gateway.AssertExpectations(t)
}

func TestCreatePaymentURL_OrderNotFound(t *testing.T) {
	repo := new(mockOrderRepo)
	repo.On("GetByOrderNo", mock.Anything, "missing").Return(nil, order.ErrNotFound)

	gateway := new(mockGateway)
	uc := NewCreatePaymentURLUseCase(repo, gateway, testLogger())

	_, err := uc.Execute(context.Background(), CreatePaymentURLCommand{OrderNo: "missing"})
	assert.ErrorIs(t, err, order.ErrNotFound)
	gateway.AssertNotCalled(t, "BuildPaymentURL", mock.Anything)
}

func TestCreatePaymentURL_NotPayable(t *testing.T) {
	tests := []struct {
		name          string
		paymentStatus vo.PaymentStatus
	}{
		{name: "already paid", paymentStatus: vo.PaymentStatusPaid},
		{name: "already failed", paymentStatus: vo.PaymentStatusFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now := biztime.NowUTC()
			settled := order.ReconstructOrder(1, "A1", 500000, vo.OrderStatusPending,
				tc.paymentStatus, PaymentMethodVNPay, nil, nil, nil, 1, now, now)

			repo := new(mockOrderRepo)
			repo.On("GetByOrderNo", mock.Anything, "A1").Return(settled, nil)

			gateway := new(mockGateway)
			uc := NewCreatePaymentURLUseCase(repo, gateway, testLogger())

			_, err := uc.Execute(context.Background(), CreatePaymentURLCommand{OrderNo: "A1"})
			assert.ErrorIs(t, err, order.ErrNotPayable)
			gateway.AssertNotCalled(t, "BuildPaymentURL", mock.Anything,
				"a non-payable order must not produce a gateway redirect")
		})
	}
}
