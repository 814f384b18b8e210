package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Variants").First(&p, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Variants").First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	var list []domain.Product
	q := r.db.WithContext(ctx).Model(&domain.Product{}).Where("active = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(brand) LIKE LOWER(?)", like, like)
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
	if err := q.Order("name asc").Offset(offset).Limit(f.PageSize).Preload("Variants").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ProductRepo) SaveVariant(ctx context.Context, v *domain.Variant) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *ProductRepo) FindVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	var v domain.Variant
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
