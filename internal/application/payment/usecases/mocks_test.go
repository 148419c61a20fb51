package usecases

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/domain/order"
	vo "lotuspay/internal/domain/order/valueobjects"
	"lotuspay/internal/shared/biztime"
	"lotuspay/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func pendingTestOrder(t *testing.T, orderNo string, amount int64) *order.Order {
	t.Helper()
	o, err := order.NewOrder(orderNo, amount)
	require.NoError(t, err)
	return o
}

func paidTestOrder(orderNo string, amount int64) *order.Order {
	paid := amount
	ref := "14226112"
	now := biztime.NowUTC()
	return order.ReconstructOrder(1, orderNo, amount, vo.OrderStatusPaid, vo.PaymentStatusPaid,
		PaymentMethodVNPay, &paid, &ref, &now, 1, now, now)
}

// --- testify mocks ---

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *mockOrderRepo) SettleIfPending(ctx context.Context, o *order.Order) (bool, error) {
	args := m.Called(ctx, o)
	return args.Bool(0), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) BuildPaymentURL(req paymentgateway.PaymentURLRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) VerifyCallback(values url.Values) (*paymentgateway.CallbackData, error) {
	args := m.Called(values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CallbackData), args.Error(1)
}

type mockSettlementCache struct {
	mock.Mock
}

func (m *mockSettlementCache) IsSettled(ctx context.Context, orderNo, gatewayTxnRef string) (bool, error) {
	args := m.Called(ctx, orderNo, gatewayTxnRef)
	return args.Bool(0), args.Error(1)
}

func (m *mockSettlementCache) MarkSettled(ctx context.Context, orderNo, gatewayTxnRef string, ttl time.Duration) error {
	args := m.Called(ctx, orderNo, gatewayTxnRef, ttl)
	return args.Error(0)
}

// --- hand-rolled fakes for concurrency and side-effect counting ---

// countingNotifier records confirmations and signals on a channel so tests
// can wait for the async send.
type countingNotifier struct {
	mu    sync.Mutex
	sent  []PaymentConfirmation
	ready chan struct{}
}

func newCountingNotifier() *countingNotifier {
	return &countingNotifier{ready: make(chan struct{}, 16)}
}

func (n *countingNotifier) SendPaymentConfirmation(ctx context.Context, c PaymentConfirmation) error {
	n.mu.Lock()
	n.sent = append(n.sent, c)
	n.mu.Unlock()
	n.ready <- struct{}{}
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *countingNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for confirmation notification")
	}
}

// memoryOrderRepo implements order.Repository with the same compare-and-swap
// semantics as the database repository, for race tests.
type memoryOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: make(map[string]*order.Order)}
}

func (r *memoryOrderRepo) Create(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.SetID(uint(len(r.orders) + 1))
	r.orders[o.OrderNo()] = snapshotOrder(o)
	return nil
}

func (r *memoryOrderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNo]
	if !ok {
		return nil, order.ErrNotFound
	}
	return snapshotOrder(o), nil
}

func (r *memoryOrderRepo) SettleIfPending(ctx context.Context, o *order.Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.OrderNo()]
	if !ok || !stored.PaymentStatus().IsPending() {
		return false, nil
	}
	r.orders[o.OrderNo()] = snapshotOrder(o)
	return true, nil
}

func snapshotOrder(o *order.Order) *order.Order {
	return order.ReconstructOrder(
		o.ID(), o.OrderNo(), o.Amount(), o.Status(), o.PaymentStatus(), o.PaymentMethod(),
		o.PaidAmount(), o.GatewayTxnRef(), o.PaidAt(), o.Version(), o.CreatedAt(), o.UpdatedAt(),
	)
}
