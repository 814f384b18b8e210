package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

// LicenseKeyRepo serializes key assignment per variant with row locks:
// the candidate rows are taken SELECT ... FOR UPDATE inside a transaction, so
// two concurrent orders for the same variant queue instead of racing.
type LicenseKeyRepo struct{ db *gorm.DB }

func NewLicenseKeyRepo(db *gorm.DB) *LicenseKeyRepo { return &LicenseKeyRepo{db: db} }

const assignRetries = 3

func (r *LicenseKeyRepo) AssignKeys(ctx context.Context, variantID uuid.UUID, qty int, orderID uuid.UUID, customerID *uuid.UUID) ([]domain.LicenseKey, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	var assigned []domain.LicenseKey
	var lastErr error
	for attempt := 0; attempt < assignRetries; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var keys []domain.LicenseKey
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("variant_id = ? AND status = ?", variantID, domain.KeyAvailable).
				Order("created_at asc, id asc").
				Limit(qty).
				Find(&keys).Error; err != nil {
				return err
			}
			// All or nothing: a short pool assigns no keys at all.
			if len(keys) < qty {
				return domain.ErrOutOfStock
			}
			now := time.Now().UTC()
			ids := make([]uuid.UUID, len(keys))
			for i := range keys {
				ids[i] = keys[i].ID
			}
			if err := tx.Model(&domain.LicenseKey{}).Where("id IN ?", ids).
				Updates(map[string]any{
					"status":      domain.KeyUsed,
					"order_id":    orderID,
					"customer_id": customerID,
					"assigned_at": now,
				}).Error; err != nil {
				return err
			}
			for i := range keys {
				keys[i].Status = domain.KeyUsed
				keys[i].OrderID = &orderID
				keys[i].CustomerID = customerID
				at := now
				keys[i].AssignedAt = &at
			}
			assigned = keys
			return nil
		})
		if err == nil {
			return assigned, nil
		}
		if errors.Is(err, domain.ErrOutOfStock) || errors.Is(err, domain.ErrValidation) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// Deadlock or serialization failure; retry the whole transaction.
		lastErr = err
	}
	return nil, fmt.Errorf("assign keys after %d attempts (%v): %w", assignRetries, lastErr, domain.ErrConcurrencyConflict)
}

// AddKeys inserts keys that are not already in the variant's pool and reports
// the available count before and after, inside one transaction so the
// zero-to-positive restock transition is observed consistently.
func (r *LicenseKeyRepo) AddKeys(ctx context.Context, variantID uuid.UUID, keys []string) (int64, int64, error) {
	var before, after int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.LicenseKey{}).
			Where("variant_id = ? AND status = ?", variantID, domain.KeyAvailable).
			Count(&before).Error; err != nil {
			return err
		}
		rows := make([]domain.LicenseKey, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, domain.LicenseKey{
				ID:        uuid.New(),
				VariantID: variantID,
				Key:       k,
				Status:    domain.KeyAvailable,
			})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "variant_id"}, {Name: "key"}},
			DoNothing: true,
		}).Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&domain.LicenseKey{}).
			Where("variant_id = ? AND status = ?", variantID, domain.KeyAvailable).
			Count(&after).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

func (r *LicenseKeyRepo) AvailableCount(ctx context.Context, variantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.LicenseKey{}).
		Where("variant_id = ? AND status = ?", variantID, domain.KeyAvailable).
		Count(&n).Error
	return n, err
}

func (r *LicenseKeyRepo) KeysForOrder(ctx context.Context, orderID uuid.UUID) ([]domain.LicenseKey, error) {
	var keys []domain.LicenseKey
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("assigned_at asc").
		Find(&keys).Error
	return keys, err
}
