package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

func customerLadder() []domain.LoyaltyTier {
	return []domain.LoyaltyTier{
		{Name: "Thành viên Vàng", Program: domain.RoleCustomer, MinPoints: 500, DiscountPercentage: 5},
		{Name: "Thành viên Bạc", Program: domain.RoleCustomer, MinPoints: 100, DiscountPercentage: 2},
		{Name: "Thành viên Kim Cương", Program: domain.RoleCustomer, MinPoints: 2000, DiscountPercentage: 8},
	}
}

func TestTierFor(t *testing.T) {
	tiers := customerLadder()

	cases := []struct {
		points int64
		want   string
	}{
		{0, Unranked.Name},
		{99, Unranked.Name},
		{100, "Thành viên Bạc"},
		{499, "Thành viên Bạc"},
		{500, "Thành viên Vàng"},
		{1999, "Thành viên Vàng"},
		{2000, "Thành viên Kim Cương"},
		{1000000, "Thành viên Kim Cương"},
	}
	for _, tc := range cases {
		got := TierFor(tc.points, tiers)
		assert.Equal(t, tc.want, got.Name, "points=%d", tc.points)
	}
}

func TestTierFor_EmptyLadder(t *testing.T) {
	got := TierFor(5000, nil)
	assert.Equal(t, Unranked, got)
	assert.Zero(t, got.DiscountPercentage)
}

func TestProgramTiers_ResellerFallsBackToCustomerLadder(t *testing.T) {
	s := &domain.LoyaltySettings{Tiers: customerLadder()}

	got := ProgramTiers(s, domain.RoleReseller)

	assert.Len(t, got, 3, "no reseller ladder configured, customers' applies")
}

func TestProgramTiers_ResellerLadderPreferred(t *testing.T) {
	s := &domain.LoyaltySettings{Tiers: append(customerLadder(),
		domain.LoyaltyTier{Name: "Đại lý Đồng", Program: domain.RoleReseller, MinPoints: 1000, DiscountPercentage: 3},
	)}

	reseller := ProgramTiers(s, domain.RoleReseller)
	customer := ProgramTiers(s, domain.RoleCustomer)

	assert.Len(t, reseller, 1)
	assert.Equal(t, "Đại lý Đồng", reseller[0].Name)
	assert.Len(t, customer, 3)
}

func TestDiscountAmount(t *testing.T) {
	tier := domain.LoyaltyTier{DiscountPercentage: 5}

	assert.Equal(t, int64(45000), DiscountAmount(tier, 900000))
	assert.Equal(t, int64(0), DiscountAmount(tier, 0))
	assert.Equal(t, int64(0), DiscountAmount(tier, -100))
	assert.Equal(t, int64(0), DiscountAmount(Unranked, 900000))
	// 5% of 999 floors.
	assert.Equal(t, int64(49), DiscountAmount(tier, 999))
}

func TestPointsEarned(t *testing.T) {
	assert.Equal(t, int64(940), PointsEarned(940500, 0.001))
	assert.Equal(t, int64(0), PointsEarned(999, 0.001))
	assert.Equal(t, int64(0), PointsEarned(0, 0.001))
	assert.Equal(t, int64(0), PointsEarned(500000, 0))
}
