package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

// Status values are stored as the Vietnamese labels customers see.
const (
	OrderStatusPending    OrderStatus = "Chờ thanh toán"
	OrderStatusProcessing OrderStatus = "Đang xử lý"
	OrderStatusCompleted  OrderStatus = "Hoàn thành"
	OrderStatusCancelled  OrderStatus = "Đã hủy"
)

// CanTransition reports whether the status machine permits from -> to.
// Cancellation is reachable only before completion.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusProcessing || to == OrderStatusCancelled
	case OrderStatusProcessing:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	default:
		return false
	}
}

// Order carries an immutable price snapshot taken at checkout. Catalog price
// changes after placement never alter these amounts.
type Order struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	CustomerID     *uuid.UUID  `gorm:"type:uuid;index"`
	Status         OrderStatus `gorm:"type:varchar(30);index"`
	Items          []OrderItem
	Subtotal       int64      `gorm:"not null;default:0"`
	DiscountID     *uuid.UUID `gorm:"type:uuid"`
	DiscountCode   string     `gorm:"size:40"`
	DiscountAmount int64      `gorm:"not null;default:0"`
	LoyaltyDiscount int64     `gorm:"not null;default:0"`
	VAT            int64      `gorm:"column:vat;not null;default:0"`
	Total          int64      `gorm:"not null;default:0"`
	PaymentMethod  string     `gorm:"size:30;index"`
	// FulfillmentPending marks a paid order whose key assignment failed for
	// lack of stock. It must never silently complete with zero keys.
	FulfillmentPending bool `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;index"`
	ProductID uuid.UUID `gorm:"type:uuid;index"`
	VariantID uuid.UUID `gorm:"type:uuid;index"`
	Name      string    `gorm:"size:180"`
	Qty       int       `gorm:"not null"`
	UnitPrice int64     `gorm:"not null"`
}

type OrderFilter struct {
	Status   OrderStatus
	Page     int
	PageSize int
}
