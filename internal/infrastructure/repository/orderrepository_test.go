package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lotuspay/internal/domain/order"
	vo "lotuspay/internal/domain/order/valueobjects"
	"lotuspay/internal/infrastructure/persistence/models"
	"lotuspay/internal/shared/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.OrderModel{})
	require.NoError(t, err)

	return db
}

func createPendingOrder(t *testing.T, repo *OrderRepository, orderNo string, amount int64) *order.Order {
	t.Helper()
	o, err := order.NewOrder(orderNo, amount)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestOrderRepository_Create(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))

	o := createPendingOrder(t, repo, "A1", 500000)
	assert.NotZero(t, o.ID())

	found, err := repo.GetByOrderNo(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, o.ID(), found.ID())
	assert.Equal(t, int64(500000), found.Amount())
	assert.Equal(t, vo.PaymentStatusPending, found.PaymentStatus())
}

func TestOrderRepository_CreateDuplicateOrderNo(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	createPendingOrder(t, repo, "A1", 500000)

	dup, err := order.NewOrder("A1", 500000)
	require.NoError(t, err)
	assert.Error(t, repo.Create(context.Background(), dup))
}

func TestOrderRepository_GetByOrderNoNotFound(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))

	_, err := repo.GetByOrderNo(context.Background(), "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepository_SettleIfPending(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	o := createPendingOrder(t, repo, "A1", 500000)

	o.MarkPaymentMethod("vnpay")
	require.NoError(t, o.SettleAsPaid(500000, "14226112"))

	applied, err := repo.SettleIfPending(context.Background(), o)
	require.NoError(t, err)
	assert.True(t, applied)

	stored, err := repo.GetByOrderNo(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, vo.PaymentStatusPaid, stored.PaymentStatus())
	assert.Equal(t, vo.OrderStatusPaid, stored.Status())
	assert.Equal(t, "vnpay", stored.PaymentMethod())
	require.NotNil(t, stored.PaidAmount())
	assert.Equal(t, int64(500000), *stored.PaidAmount())
	require.NotNil(t, stored.GatewayTxnRef())
	assert.Equal(t, "14226112", *stored.GatewayTxnRef())
	assert.NotNil(t, stored.PaidAt())
}

func TestOrderRepository_SettleIfPendingLosesWhenAlreadySettled(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	o := createPendingOrder(t, repo, "A1", 500000)

	winner, err := repo.GetByOrderNo(ctx, "A1")
	require.NoError(t, err)
	require.NoError(t, winner.SettleAsPaid(500000, "14226112"))
	applied, err := repo.SettleIfPending(ctx, winner)
	require.NoError(t, err)
	require.True(t, applied)

	// Second settlement of the same order must hit the guard and leave the
	// row untouched.
	require.NoError(t, o.SettleAsFailed("99999999"))
	applied, err = repo.SettleIfPending(ctx, o)
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := repo.GetByOrderNo(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, vo.PaymentStatusPaid, stored.PaymentStatus())
	require.NotNil(t, stored.GatewayTxnRef())
	assert.Equal(t, "14226112", *stored.GatewayTxnRef())
}

func TestOrderRepository_SettleInsideTransaction(t *testing.T) {
	gormDB := setupTestDB(t)
	repo := NewOrderRepository(gormDB)
	ctx := context.Background()

	o := createPendingOrder(t, repo, "A1", 500000)
	require.NoError(t, o.SettleAsPaid(500000, "14226112"))

	// A rolled-back transaction must leave the row pending.
	tm := db.NewTransactionManager(gormDB)
	sentinel := errors.New("rollback")
	err := tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		applied, settleErr := repo.SettleIfPending(txCtx, o)
		require.NoError(t, settleErr)
		require.True(t, applied)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	stored, err := repo.GetByOrderNo(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, vo.PaymentStatusPending, stored.PaymentStatus())

	// Committed, the settlement sticks.
	err = tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		applied, settleErr := repo.SettleIfPending(txCtx, o)
		require.NoError(t, settleErr)
		require.True(t, applied)
		return nil
	})
	require.NoError(t, err)

	stored, err = repo.GetByOrderNo(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, vo.PaymentStatusPaid, stored.PaymentStatus())
}

func TestOrderRepository_SettleAsFailedKeepsOrderPending(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	o := createPendingOrder(t, repo, "A1", 500000)
	require.NoError(t, o.SettleAsFailed("14226112"))

	applied, err := repo.SettleIfPending(ctx, o)
	require.NoError(t, err)
	require.True(t, applied)

	stored, err := repo.GetByOrderNo(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, vo.PaymentStatusFailed, stored.PaymentStatus())
	assert.Equal(t, vo.OrderStatusPending, stored.Status(), "a declined payment keeps the order open for retry")
	assert.Nil(t, stored.PaidAmount())
}
