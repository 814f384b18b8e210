// Package pricing holds the pure money math of the store: per-line price
// resolution and the cart total pipeline. Everything takes its inputs
// explicitly (role, clock, VAT rate) and touches no storage.
package pricing

import (
	"time"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type LinePrice struct {
	UnitPrice    int64
	IsDiscounted bool
	// ReferencePrice is the strikethrough price when IsDiscounted, otherwise
	// it equals UnitPrice.
	ReferencePrice int64
}

// ResolveLinePrice is the single authority for what one unit of a variant
// costs a given role at a given instant. Precedence: negotiated reseller
// price (never shown as a discount), then an active sale, then base price.
// Sale state is purely a function of now; nothing here is cached.
func ResolveLinePrice(v *domain.Variant, role domain.Role, now time.Time) LinePrice {
	if role == domain.RoleReseller && v.ResellerPrice != nil {
		return LinePrice{UnitPrice: *v.ResellerPrice, ReferencePrice: *v.ResellerPrice}
	}
	if v.SaleActive(now) {
		return LinePrice{UnitPrice: *v.SalePrice, IsDiscounted: true, ReferencePrice: v.Price}
	}
	return LinePrice{UnitPrice: v.Price, ReferencePrice: v.Price}
}
