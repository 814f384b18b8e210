package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type CustomerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) Save(ctx context.Context, c *domain.Customer) error {
	if c.Email != "" {
		c.Email = strings.ToLower(c.Email)
	}
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CustomerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, domain.ErrValidation
	}
	if err := r.db.WithContext(ctx).First(&c, "LOWER(email) = ?", e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int64) error {
	return r.db.WithContext(ctx).Model(&domain.Customer{}).Where("id = ?", id).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}
