package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lotuspay/internal/domain/order"
	vo "lotuspay/internal/domain/order/valueobjects"
	"lotuspay/internal/infrastructure/persistence/mappers"
	"lotuspay/internal/infrastructure/persistence/models"
	"lotuspay/internal/shared/db"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := mappers.OrderToModel(o)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	// Write back the auto-generated ID to the domain object
	o.SetID(model.ID)

	return nil
}

func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model models.OrderModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_no = ?", orderNo).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order by order_no: %w", err)
	}

	return mappers.OrderToDomain(&model)
}

// SettleIfPending applies the settled state with a conditional update guarded
// on payment_status still being pending. Returns false without error when a
// concurrent settlement already flipped the status; the row is left untouched.
func (r *OrderRepository) SettleIfPending(ctx context.Context, o *order.Order) (bool, error) {
	model := mappers.OrderToModel(o)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrderModel{}).
		Where("order_no = ? AND payment_status = ?", model.OrderNo, vo.PaymentStatusPending.String()).
		Updates(map[string]interface{}{
			"status":          model.Status,
			"payment_status":  model.PaymentStatus,
			"payment_method":  model.PaymentMethod,
			"paid_amount":     model.PaidAmount,
			"gateway_txn_ref": model.GatewayTxnRef,
			"paid_at":         model.PaidAt,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to settle order: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
