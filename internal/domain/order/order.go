package order

import (
	"errors"
	"fmt"
	"time"

	vo "lotuspay/internal/domain/order/valueobjects"
	"lotuspay/internal/shared/biztime"
)

var (
	// ErrNotFound is returned when no order matches the given order number.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadySettled is returned when a settlement is attempted on an
	// order whose payment status is already terminal. Callers must treat it
	// as an idempotent no-op, not a failure.
	ErrAlreadySettled = errors.New("order already settled")
	// ErrNotPayable is returned when a payment URL is requested for an order
	// that is not in pending payment status.
	ErrNotPayable = errors.New("order not payable")
)

// Order is the payment-facing view of a shop order. Amount is in minor
// currency units. The payment status transitions pending -> paid or
// pending -> failed exactly once; the aggregate enforces the guard and the
// repository enforces it again with a conditional update so concurrent
// settlement attempts cannot both win.
type Order struct {
	id            uint
	orderNo       string
	amount        int64
	status        vo.OrderStatus
	paymentStatus vo.PaymentStatus
	paymentMethod string
	paidAmount    *int64
	gatewayTxnRef *string
	paidAt        *time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time
}

func NewOrder(orderNo string, amount int64) (*Order, error) {
	if orderNo == "" {
		return nil, fmt.Errorf("order number is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	now := biztime.NowUTC()
	return &Order{
		orderNo:       orderNo,
		amount:        amount,
		status:        vo.OrderStatusPending,
		paymentStatus: vo.PaymentStatusPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// IsPayable reports whether a payment attempt may be started for this order.
func (o *Order) IsPayable() bool {
	return o.paymentStatus.IsPending()
}

// MarkPaymentMethod records the gateway chosen for the current attempt.
func (o *Order) MarkPaymentMethod(method string) {
	o.paymentMethod = method
	o.updatedAt = biztime.NowUTC()
}

// SettleAsPaid moves the order to paid. The paid amount must equal the
// expected amount; an approved callback with a different amount must be
// settled as failed by the caller instead.
func (o *Order) SettleAsPaid(paidAmount int64, gatewayTxnRef string) error {
	if o.paymentStatus.IsFinal() {
		return ErrAlreadySettled
	}
	if paidAmount != o.amount {
		return fmt.Errorf("paid amount %d does not match expected %d", paidAmount, o.amount)
	}

	now := biztime.NowUTC()
	o.paymentStatus = vo.PaymentStatusPaid
	o.status = vo.OrderStatusPaid
	o.paidAmount = &paidAmount
	o.gatewayTxnRef = &gatewayTxnRef
	o.paidAt = &now
	o.updatedAt = now
	o.version++

	return nil
}

// SettleAsFailed moves the payment to failed. The order status stays pending
// so the customer can retry the payment.
func (o *Order) SettleAsFailed(gatewayTxnRef string) error {
	if o.paymentStatus.IsFinal() {
		return ErrAlreadySettled
	}

	o.paymentStatus = vo.PaymentStatusFailed
	if gatewayTxnRef != "" {
		o.gatewayTxnRef = &gatewayTxnRef
	}
	o.updatedAt = biztime.NowUTC()
	o.version++

	return nil
}

func (o *Order) ID() uint {
	return o.id
}

func (o *Order) OrderNo() string {
	return o.orderNo
}

func (o *Order) Amount() int64 {
	return o.amount
}

func (o *Order) Status() vo.OrderStatus {
	return o.status
}

func (o *Order) PaymentStatus() vo.PaymentStatus {
	return o.paymentStatus
}

func (o *Order) PaymentMethod() string {
	return o.paymentMethod
}

func (o *Order) PaidAmount() *int64 {
	return o.paidAmount
}

func (o *Order) GatewayTxnRef() *string {
	return o.gatewayTxnRef
}

func (o *Order) PaidAt() *time.Time {
	return o.paidAt
}

func (o *Order) Version() int {
	return o.version
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// SetID sets the order ID after persistence (used by repository after Create)
func (o *Order) SetID(id uint) {
	o.id = id
}

func ReconstructOrder(
	id uint,
	orderNo string,
	amount int64,
	status vo.OrderStatus,
	paymentStatus vo.PaymentStatus,
	paymentMethod string,
	paidAmount *int64,
	gatewayTxnRef *string,
	paidAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:            id,
		orderNo:       orderNo,
		amount:        amount,
		status:        status,
		paymentStatus: paymentStatus,
		paymentMethod: paymentMethod,
		paidAmount:    paidAmount,
		gatewayTxnRef: gatewayTxnRef,
		paidAt:        paidAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}
