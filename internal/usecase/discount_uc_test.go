package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

func seedDiscount(t *testing.T, repo *fakeDiscountRepo, d domain.Discount) *domain.Discount {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &d))
	return &d
}

func TestDiscountApply_NormalizesCode(t *testing.T) {
	repo := newFakeDiscountRepo()
	seedDiscount(t, repo, domain.Discount{Code: "TET2026", Type: domain.DiscountPercentage, Value: 10, IsActive: true})
	uc := &DiscountUC{Discounts: repo}

	got, err := uc.Apply(context.Background(), "  tet2026 ")

	require.NoError(t, err)
	assert.Equal(t, "TET2026", got.Code)
}

func TestDiscountApply_EmptyCode(t *testing.T) {
	uc := &DiscountUC{Discounts: newFakeDiscountRepo()}

	_, err := uc.Apply(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDiscountApply_UnknownCode(t *testing.T) {
	uc := &DiscountUC{Discounts: newFakeDiscountRepo()}

	_, err := uc.Apply(context.Background(), "KHONGCO")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDiscountApply_Inactive(t *testing.T) {
	repo := newFakeDiscountRepo()
	seedDiscount(t, repo, domain.Discount{Code: "TAMDUNG", Type: domain.DiscountFixed, Value: 50000, IsActive: false})
	uc := &DiscountUC{Discounts: repo}

	_, err := uc.Apply(context.Background(), "TAMDUNG")

	assert.ErrorIs(t, err, domain.ErrDiscountInactive)
}

func TestDiscountApply_ExpiryHonoredThroughEndOfDay(t *testing.T) {
	expires := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	repo := newFakeDiscountRepo()
	seedDiscount(t, repo, domain.Discount{Code: "TET2026", Type: domain.DiscountPercentage, Value: 10, IsActive: true, ExpiresAt: &expires})

	lastMoment := time.Date(2026, 2, 17, 23, 59, 0, 0, time.UTC)
	uc := &DiscountUC{Discounts: repo, Now: func() time.Time { return lastMoment }}
	_, err := uc.Apply(context.Background(), "TET2026")
	assert.NoError(t, err, "the expiry day itself is still valid")

	nextMidnight := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	uc.Now = func() time.Time { return nextMidnight }
	_, err = uc.Apply(context.Background(), "TET2026")
	assert.ErrorIs(t, err, domain.ErrDiscountExpired)
}

func TestDiscountApply_UsageExceeded(t *testing.T) {
	repo := newFakeDiscountRepo()
	seedDiscount(t, repo, domain.Discount{Code: "MOTLAN", Type: domain.DiscountFixed, Value: 20000, IsActive: true, UsageLimit: 1, TimesUsed: 1})
	uc := &DiscountUC{Discounts: repo}

	_, err := uc.Apply(context.Background(), "MOTLAN")

	assert.ErrorIs(t, err, domain.ErrDiscountUsageExceeded)
}

func TestDiscountApply_UnlimitedWhenLimitZero(t *testing.T) {
	repo := newFakeDiscountRepo()
	seedDiscount(t, repo, domain.Discount{Code: "FREESHIP", Type: domain.DiscountFixed, Value: 15000, IsActive: true, UsageLimit: 0, TimesUsed: 9000})
	uc := &DiscountUC{Discounts: repo}

	_, err := uc.Apply(context.Background(), "FREESHIP")

	assert.NoError(t, err)
}

func TestDiscountApply_IsReadOnly(t *testing.T) {
	repo := newFakeDiscountRepo()
	d := seedDiscount(t, repo, domain.Discount{Code: "DOC", Type: domain.DiscountPercentage, Value: 5, IsActive: true, UsageLimit: 10})
	uc := &DiscountUC{Discounts: repo}

	for i := 0; i < 3; i++ {
		_, err := uc.Apply(context.Background(), "DOC")
		require.NoError(t, err)
	}

	assert.Equal(t, 0, repo.timesUsed(d.ID), "validation must not consume usage")
}

func TestDiscountIncrementUsage_StopsAtLimit(t *testing.T) {
	repo := newFakeDiscountRepo()
	d := seedDiscount(t, repo, domain.Discount{Code: "GIOIHAN", Type: domain.DiscountFixed, Value: 10000, IsActive: true, UsageLimit: 2})
	uc := &DiscountUC{Discounts: repo}

	require.NoError(t, uc.IncrementUsage(context.Background(), d.ID))
	require.NoError(t, uc.IncrementUsage(context.Background(), d.ID))
	err := uc.IncrementUsage(context.Background(), d.ID)

	assert.ErrorIs(t, err, domain.ErrDiscountUsageExceeded)
	assert.Equal(t, 2, repo.timesUsed(d.ID))
}

func TestDiscountIncrementUsage_UnknownID(t *testing.T) {
	uc := &DiscountUC{Discounts: newFakeDiscountRepo()}

	err := uc.IncrementUsage(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
