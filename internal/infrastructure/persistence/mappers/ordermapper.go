package mappers

import (
	"fmt"

	"lotuspay/internal/domain/order"
	vo "lotuspay/internal/domain/order/valueobjects"
	"lotuspay/internal/infrastructure/persistence/models"
)

func OrderToModel(o *order.Order) *models.OrderModel {
	return &models.OrderModel{
		ID:            o.ID(),
		OrderNo:       o.OrderNo(),
		Amount:        o.Amount(),
		Status:        o.Status().String(),
		PaymentStatus: o.PaymentStatus().String(),
		PaymentMethod: o.PaymentMethod(),
		PaidAmount:    o.PaidAmount(),
		GatewayTxnRef: o.GatewayTxnRef(),
		PaidAt:        o.PaidAt(),
		Version:       o.Version(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
	}
}

func OrderToDomain(model *models.OrderModel) (*order.Order, error) {
	status := vo.OrderStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid order status: %s", model.Status)
	}

	paymentStatus := vo.PaymentStatus(model.PaymentStatus)
	if !paymentStatus.IsValid() {
		return nil, fmt.Errorf("invalid payment status: %s", model.PaymentStatus)
	}

	return order.ReconstructOrder(
		model.ID,
		model.OrderNo,
		model.Amount,
		status,
		paymentStatus,
		model.PaymentMethod,
		model.PaidAmount,
		model.GatewayTxnRef,
		model.PaidAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}
