package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockNotification is a durable "notify me" request for an out-of-stock
// variant. The fulfillment orchestrator drains pending rows when availability
// goes from zero to positive.
type StockNotification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email       string    `gorm:"size:140;not null"`
	ProductID   uuid.UUID `gorm:"type:uuid;index:idx_stock_notifications_variant"`
	VariantID   uuid.UUID `gorm:"type:uuid;index:idx_stock_notifications_variant"`
	ProductName string    `gorm:"size:180"`
	VariantName string    `gorm:"size:140"`
	ProductSlug string    `gorm:"size:140"`
	Notified    bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time
}
