package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

// DiscountUC validates discount codes. Validation is read-only: usage is
// consumed separately via IncrementUsage once an order is durably placed, so
// abandoned carts never burn a redemption.
type DiscountUC struct {
	Discounts domain.DiscountRepo
	Now       func() time.Time
}

func (uc *DiscountUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Apply resolves a code to its discount record or fails with one of the
// user-distinguishable reasons: ErrNotFound, ErrDiscountInactive,
// ErrDiscountExpired, ErrDiscountUsageExceeded.
func (uc *DiscountUC) Apply(ctx context.Context, code string) (*domain.Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("empty code: %w", domain.ErrValidation)
	}
	d, err := uc.Discounts.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, domain.ErrDiscountInactive
	}
	// A code expiring on day D is honored through D 23:59:59.999.
	if d.ExpiresAt != nil && domain.EndOfDay(*d.ExpiresAt).Before(uc.now()) {
		return nil, domain.ErrDiscountExpired
	}
	if d.UsageLimit > 0 && d.TimesUsed >= d.UsageLimit {
		return nil, domain.ErrDiscountUsageExceeded
	}
	return d, nil
}

func (uc *DiscountUC) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return uc.Discounts.IncrementUsage(ctx, id)
}
