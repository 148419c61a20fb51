package models

import "time"

type OrderModel struct {
	ID            uint    `gorm:"primaryKey"`
	OrderNo       string  `gorm:"uniqueIndex;size:64;not null"`
	Amount        int64   `gorm:"not null"`
	Status        string  `gorm:"size:20;not null;index"`
	PaymentStatus string  `gorm:"size:20;not null;index"`
	PaymentMethod string  `gorm:"size:20"`
	PaidAmount    *int64
	GatewayTxnRef *string `gorm:"size:128;index"`
	PaidAt        *time.Time
	Version       int `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}
