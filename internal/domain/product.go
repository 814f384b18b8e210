package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleReseller Role = "reseller"
)

type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slug      string    `gorm:"uniqueIndex;size:140"`
	Name      string    `gorm:"size:180"`
	Category  string    `gorm:"size:100;index"`
	Brand     string    `gorm:"size:100;index"`
	ShortDesc string    `gorm:"type:text"`
	Active    bool      `gorm:"default:true;index"`
	Variants  []Variant
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant is a sellable SKU. Prices are whole VND, no subunits.
type Variant struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID     uuid.UUID `gorm:"type:uuid;index"`
	Name          string    `gorm:"size:140"`
	Price         int64     `gorm:"not null"`
	ResellerPrice *int64
	SalePrice     *int64
	SaleStartDate *time.Time
	SaleEndDate   *time.Time
	DownloadURL   string `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleActive reports whether the time-boxed sale override applies at now.
// Both bounds are inclusive; an unset bound is treated as satisfied.
// A sale price that is not strictly below the base price never activates.
func (v *Variant) SaleActive(now time.Time) bool {
	if v.SalePrice == nil || *v.SalePrice >= v.Price {
		return false
	}
	if v.SaleStartDate != nil && now.Before(*v.SaleStartDate) {
		return false
	}
	if v.SaleEndDate != nil && now.After(*v.SaleEndDate) {
		return false
	}
	return true
}

type ProductFilter struct {
	Category string
	Query    string
	Page     int
	PageSize int
}
