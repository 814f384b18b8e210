package domain

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email         string    `gorm:"size:140;uniqueIndex"`
	Name          string    `gorm:"size:140"`
	Phone         string    `gorm:"size:60"`
	Role          Role      `gorm:"type:varchar(12);not null;default:'customer'"`
	LoyaltyPoints int64     `gorm:"not null;default:0"`
	LoyaltyTier   string    `gorm:"size:80"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
