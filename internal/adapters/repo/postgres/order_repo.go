package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	var list []domain.Order
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	offset := (f.Page - 1) * f.PageSize
	if err := q.Order("created_at desc").Offset(offset).Limit(f.PageSize).Preload("Items").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%s -> %s: %w", from, to, domain.ErrIllegalTransition)
	}
	return nil
}

func (r *OrderRepo) SetFulfillmentPending(ctx context.Context, id uuid.UUID, pending bool) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).
		UpdateColumn("fulfillment_pending", pending).Error
}
