package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type StockNotificationRepo struct{ db *gorm.DB }

func NewStockNotificationRepo(db *gorm.DB) *StockNotificationRepo {
	return &StockNotificationRepo{db: db}
}

func (r *StockNotificationRepo) Save(ctx context.Context, n *domain.StockNotification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *StockNotificationRepo) Pending(ctx context.Context, productID, variantID uuid.UUID) ([]domain.StockNotification, error) {
	var list []domain.StockNotification
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ? AND notified = ?", productID, variantID, false).
		Order("created_at asc").
		Find(&list).Error
	return list, err
}

func (r *StockNotificationRepo) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.StockNotification{}).
		Where("id IN ?", ids).
		UpdateColumn("notified", true).Error
}
