// Package loyalty maps accumulated points to tiers and discounts. Pure
// functions only; accrual persistence belongs to the caller.
package loyalty

import (
	"math"
	"sort"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

// Unranked is the sentinel tier for customers below the lowest threshold.
var Unranked = domain.LoyaltyTier{Name: "Chưa xếp hạng"}

// ProgramTiers picks the tier ladder for a role. Resellers get their own
// ladder when one is configured, otherwise they share the customer ladder.
func ProgramTiers(s *domain.LoyaltySettings, role domain.Role) []domain.LoyaltyTier {
	if s == nil {
		return nil
	}
	var customer, reseller []domain.LoyaltyTier
	for _, t := range s.Tiers {
		if t.Program == domain.RoleReseller {
			reseller = append(reseller, t)
		} else {
			customer = append(customer, t)
		}
	}
	if role == domain.RoleReseller && len(reseller) > 0 {
		return reseller
	}
	return customer
}

// TierFor returns the highest tier whose MinPoints does not exceed points,
// or Unranked when every threshold is above it.
func TierFor(points int64, tiers []domain.LoyaltyTier) domain.LoyaltyTier {
	sorted := make([]domain.LoyaltyTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinPoints < sorted[j].MinPoints })

	best := Unranked
	for _, t := range sorted {
		if t.MinPoints > points {
			break
		}
		best = t
	}
	return best
}

// DiscountAmount is tier% of base, floored. Base is the post-discount-code,
// pre-VAT amount; loyalty stacks after manual codes, not before.
func DiscountAmount(tier domain.LoyaltyTier, base int64) int64 {
	if base <= 0 || tier.DiscountPercentage <= 0 {
		return 0
	}
	return base * tier.DiscountPercentage / 100
}

// PointsEarned converts an amount spent to points at the configured rate,
// flooring the result.
func PointsEarned(amount int64, rate float64) int64 {
	if amount <= 0 || rate <= 0 {
		return 0
	}
	return int64(math.Floor(float64(amount) * rate))
}
