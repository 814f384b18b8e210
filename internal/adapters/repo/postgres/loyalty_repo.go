package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type LoyaltyRepo struct{ db *gorm.DB }

func NewLoyaltyRepo(db *gorm.DB) *LoyaltyRepo { return &LoyaltyRepo{db: db} }

func (r *LoyaltyRepo) Get(ctx context.Context) (*domain.LoyaltySettings, error) {
	var s domain.LoyaltySettings
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("min_points asc") }).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *LoyaltyRepo) Save(ctx context.Context, s *domain.LoyaltySettings) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Tiers {
		if s.Tiers[i].ID == uuid.Nil {
			s.Tiers[i].ID = uuid.New()
		}
		s.Tiers[i].SettingsID = s.ID
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(s).Error
}
