package pricing

import (
	"fmt"
	"time"

	"github.com/hdnguyen-vn/keymart/internal/domain"
	"github.com/hdnguyen-vn/keymart/internal/loyalty"
)

type CartLine struct {
	Variant  *domain.Variant
	Quantity int
}

type Totals struct {
	Subtotal        int64
	DiscountAmount  int64
	LoyaltyDiscount int64
	VAT             int64
	Total           int64
}

// DiscountAmount computes what a validated code is worth against a subtotal.
// Percentage codes take value% of the subtotal; fixed codes are clamped so
// the result never exceeds the subtotal.
func DiscountAmount(d *domain.Discount, subtotal int64) int64 {
	if d == nil || subtotal <= 0 {
		return 0
	}
	switch d.Type {
	case domain.DiscountFixed:
		if d.Value > subtotal {
			return subtotal
		}
		return d.Value
	default:
		return subtotal * d.Value / 100
	}
}

// ComputeOrderTotals runs the five-step total pipeline over one consistent
// snapshot: subtotal, discount code, loyalty discount, VAT, total. The order
// is contractual: the code applies before loyalty, and VAT is charged on the
// post-discount base. All amounts are whole VND; the division at the VAT step
// floors toward zero.
func ComputeOrderTotals(lines []CartLine, role domain.Role, d *domain.Discount, tier *domain.LoyaltyTier, vatRate int64, now time.Time) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, fmt.Errorf("empty cart: %w", domain.ErrValidation)
	}
	if vatRate < 0 {
		return Totals{}, fmt.Errorf("negative vat rate: %w", domain.ErrValidation)
	}

	var t Totals
	for _, l := range lines {
		if l.Variant == nil {
			return Totals{}, fmt.Errorf("line without variant: %w", domain.ErrValidation)
		}
		if l.Quantity <= 0 {
			return Totals{}, fmt.Errorf("quantity %d: %w", l.Quantity, domain.ErrValidation)
		}
		t.Subtotal += ResolveLinePrice(l.Variant, role, now).UnitPrice * int64(l.Quantity)
	}

	t.DiscountAmount = DiscountAmount(d, t.Subtotal)
	if tier != nil {
		t.LoyaltyDiscount = loyalty.DiscountAmount(*tier, t.Subtotal-t.DiscountAmount)
	}

	taxable := t.Subtotal - t.DiscountAmount - t.LoyaltyDiscount
	if taxable < 0 {
		taxable = 0
	}
	t.VAT = taxable * vatRate / 100
	t.Total = taxable + t.VAT
	return t, nil
}
