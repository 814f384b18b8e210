package domain

import (
	"time"

	"github.com/google/uuid"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount codes are stored upper-cased; lookups normalize before matching.
// A percentage Value is a whole percent, a fixed Value is whole VND.
type Discount struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Code       string       `gorm:"uniqueIndex;size:40;not null"`
	Type       DiscountType `gorm:"type:varchar(12);not null"`
	Value      int64        `gorm:"not null"`
	ExpiresAt  *time.Time
	UsageLimit int  `gorm:"not null;default:0"`
	TimesUsed  int  `gorm:"not null;default:0"`
	IsActive   bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
