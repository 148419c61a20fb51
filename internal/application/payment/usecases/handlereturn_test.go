package usecases

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/domain/order"
)

func approvedCallback() *paymentgateway.CallbackData {
	return &paymentgateway.CallbackData{
		OrderNo:       "A1",
		GatewayTxnRef: "14226112",
		Amount:        500000,
		ResponseCode:  "00",
	}
}

func newReturnUseCase(gateway *mockGateway, repo *mockOrderRepo) *HandleReturnUseCase {
	settleUC := NewSettleOrderUseCase(repo, testLogger())
	return NewHandleReturnUseCase(gateway, settleUC, testLogger())
}

func TestHandleReturn_InvalidSignature(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("VerifyCallback", mock.Anything).Return(nil, paymentgateway.ErrInvalidSignature)
	repo := new(mockOrderRepo)

	uc := newReturnUseCase(gateway, repo)

	redirect := uc.Execute(context.Background(), url.Values{})
	assert.Equal(t, ReturnStatusError, redirect.Status)
	assert.Equal(t, "invalid payment response", redirect.Message,
		"rejection must not reveal which field mismatched")
	repo.AssertNotCalled(t, "GetByOrderNo", mock.Anything, mock.Anything)
}

func TestHandleReturn_MalformedCallback(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("VerifyCallback", mock.Anything).Return(nil, paymentgateway.ErrMalformedCallback)

	uc := newReturnUseCase(gateway, new(mockOrderRepo))

	redirect := uc.Execute(context.Background(), url.Values{})
	assert.Equal(t, ReturnStatusError, redirect.Status)
}

func TestHandleReturn_Paid(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("VerifyCallback", mock.Anything).Return(approvedCallback(), nil)

	repo := new(mockOrderRepo)
	repo.On("GetByOrderNo", mock.Anything, "A1").Return(pendingTestOrder(t, "A1", 500000), nil)
	repo.On("SettleIfPending", mock.Anything, mock.Anything).Return(true, nil)

	uc := newReturnUseCase(gateway, repo)

	redirect := uc.Execute(context.Background(), url.Values{})
	assert.Equal(t, ReturnStatusSuccess, redirect.Status)
	assert.Equal(t, int64(500000), redirect.Amount)
	assert.Empty(t, redirect.Message)
}

func TestHandleReturn_Declined(t *testing.T) {
	declined := approvedCallback()
	declined.ResponseCode = "24"

	gateway := new(mockGateway)
	gateway.On("VerifyCallback", mock.Anything).Return(declined, nil)

	repo := new(mockOrderRepo)
	repo.On("GetByOrderNo", mock.Anything, "A1").Return(pendingTestOrder(t, "A1", 500000), nil)
	repo.On("SettleIfPending", mock.Anything, mock.Anything).Return(true, nil)

	uc := newReturnUseCase(gateway, repo)

	redirect := uc.Execute(context.Background(), url.Values{})
	assert.Equal(t, ReturnStatusFailed, redirect.Status)
}

func TestHandleReturn_AlreadyPaidShowsSuccess(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("VerifyCallback", mock.Anything).Return(approvedCallback(), nil)

	// The IPN already settled this order as paid.
	repo := new(mockOrderRepo)
	repo.On("GetByOrderNo", mock.Anything, "A1").Return(paidTestOrder("A1", 500000), nil)

	uc := newReturnUseCase(gateway, repo)

	redirect := uc.Execute(context.Background(), url.Values{})
	assert.Equal(t, ReturnStatusSuccess, redirect.Status)
	assert.Equal(t, int64(500000), redirect.Amount)
}

func TestHandleReturn_OrderNotFound(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("VerifyCallback", mock.Anything).Return(approvedCallback(), nil)

	repo := new(mockOrderRepo)
	repo.On("GetByOrderNo", mock.Anything, "A1").Return(nil, order.ErrNotFound)

	uc := newReturnUseCase(gateway, repo)

	redirect := uc.Execute(context.Background(), url.Values{})
	assert.Equal(t, ReturnStatusError, redirect.Status)
	assert.Equal(t, "order not found", redirect.Message)
}

func TestHandleReturn_StorageFailure(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("VerifyCallback", mock.Anything).Return(approvedCallback(), nil)

	repo := new(mockOrderRepo)
	repo.On("GetByOrderNo", mock.Anything, "A1").Return(pendingTestOrder(t, "A1", 500000), nil)
	repo.On("SettleIfPending", mock.Anything, mock.Anything).Return(false, errors.New("connection reset"))

	uc := newReturnUseCase(gateway, repo)

	redirect := uc.Execute(context.Background(), url.Values{})
	assert.Equal(t, ReturnStatusError, redirect.Status)
	assert.Equal(t, "payment processing failed, please try again", redirect.Message)
}
