package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltySettings is a single-row configuration: one point conversion rate
// and the tier ladders for both programs.
type LoyaltySettings struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// PointConversionRate is points earned per VND spent. Points are not
	// currency, so a fractional rate is fine here.
	PointConversionRate float64       `gorm:"not null;default:0"`
	Tiers               []LoyaltyTier `gorm:"foreignKey:SettingsID"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type LoyaltyTier struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	SettingsID         uuid.UUID `gorm:"type:uuid;index"`
	Program            Role      `gorm:"type:varchar(12);not null;default:'customer'"`
	Name               string    `gorm:"size:80"`
	MinPoints          int64     `gorm:"not null"`
	DiscountPercentage int64     `gorm:"not null;default:0"`
	Benefits           []string  `gorm:"type:jsonb;serializer:json"`
	CreatedAt          time.Time
}
