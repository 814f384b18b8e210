package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type DiscountRepo struct{ db *gorm.DB }

func NewDiscountRepo(db *gorm.DB) *DiscountRepo { return &DiscountRepo{db: db} }

func (r *DiscountRepo) Save(ctx context.Context, d *domain.Discount) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DiscountRepo) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	var d domain.Discount
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.WithContext(ctx).First(&d, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// IncrementUsage is a single conditional update: the counter only moves while
// it is below the limit, so concurrent redemptions can never push TimesUsed
// past UsageLimit.
func (r *DiscountRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&domain.Discount{}).
		Where("id = ? AND (usage_limit = 0 OR times_used < usage_limit)", id).
		UpdateColumn("times_used", gorm.Expr("times_used + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Discount{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrDiscountUsageExceeded
	}
	return nil
}
