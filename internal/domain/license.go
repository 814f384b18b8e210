package domain

import (
	"time"

	"github.com/google/uuid"
)

type KeyStatus string

const (
	KeyAvailable KeyStatus = "available"
	KeyUsed      KeyStatus = "used"
)

// LicenseKey is one unit of scarce digital inventory. A key enters the pool
// via admin import, is handed out at most once, and never returns to
// available after assignment.
type LicenseKey struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VariantID  uuid.UUID  `gorm:"type:uuid;index:idx_license_keys_variant_status"`
	Key        string     `gorm:"size:255;not null"`
	Status     KeyStatus  `gorm:"type:varchar(12);default:'available';index:idx_license_keys_variant_status"`
	OrderID    *uuid.UUID `gorm:"type:uuid;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid"`
	AssignedAt *time.Time
	CreatedAt  time.Time
}
