package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hdnguyen-vn/keymart/internal/domain"
	"github.com/hdnguyen-vn/keymart/internal/loyalty"
	"github.com/hdnguyen-vn/keymart/internal/pricing"
)

type CheckoutItem struct {
	VariantID uuid.UUID
	Quantity  int
}

type CheckoutInput struct {
	CustomerID    *uuid.UUID
	Email         string
	Name          string
	Role          domain.Role
	Items         []CheckoutItem
	DiscountCode  string
	PaymentMethod string
}

type OrderUC struct {
	Orders    domain.OrderRepo
	Products  domain.ProductRepo
	Customers domain.CustomerRepo
	Loyalty   domain.LoyaltyRepo
	Discount  *DiscountUC
	// VATRate is a whole percent (e.g. 10).
	VATRate int64
	Now     func() time.Time
}

func (uc *OrderUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Checkout turns a cart into a pending order with an immutable price
// snapshot. The five-step total runs over one snapshot of variants, code and
// tier; later catalog edits never change what was charged here.
func (uc *OrderUC) Checkout(ctx context.Context, in CheckoutInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("empty cart: %w", domain.ErrValidation)
	}
	now := uc.now()

	cust, err := uc.resolveCustomer(ctx, in)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if cust != nil {
		role = cust.Role
	}
	if role == "" {
		role = domain.RoleCustomer
	}

	lines := make([]pricing.CartLine, 0, len(in.Items))
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("quantity %d: %w", it.Quantity, domain.ErrValidation)
		}
		v, err := uc.Products.FindVariant(ctx, it.VariantID)
		if err != nil {
			return nil, err
		}
		p, err := uc.Products.FindByID(ctx, v.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pricing.CartLine{Variant: v, Quantity: it.Quantity})
		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			ProductID: p.ID,
			VariantID: v.ID,
			Name:      strings.TrimSpace(p.Name + " " + v.Name),
			Qty:       it.Quantity,
			UnitPrice: pricing.ResolveLinePrice(v, role, now).UnitPrice,
		})
	}

	var disc *domain.Discount
	if in.DiscountCode != "" {
		disc, err = uc.Discount.Apply(ctx, in.DiscountCode)
		if err != nil {
			return nil, err
		}
	}

	tier := uc.tierFor(ctx, cust, role)

	totals, err := pricing.ComputeOrderTotals(lines, role, disc, tier, uc.VATRate, now)
	if err != nil {
		return nil, err
	}

	o := &domain.Order{
		ID:              uuid.New(),
		Status:          domain.OrderStatusPending,
		Items:           items,
		Subtotal:        totals.Subtotal,
		DiscountAmount:  totals.DiscountAmount,
		LoyaltyDiscount: totals.LoyaltyDiscount,
		VAT:             totals.VAT,
		Total:           totals.Total,
		PaymentMethod:   in.PaymentMethod,
	}
	if cust != nil {
		o.CustomerID = &cust.ID
	}
	if disc != nil {
		o.DiscountID = &disc.ID
		o.DiscountCode = disc.Code
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}

	// Usage is consumed only now that the order exists. A concurrent burst at
	// the limit boundary can lose this race; the order stands either way.
	if disc != nil {
		if err := uc.Discount.IncrementUsage(ctx, disc.ID); err != nil {
			if errors.Is(err, domain.ErrDiscountUsageExceeded) {
				log.Warn().Str("code", disc.Code).Str("order", o.ID.String()).Msg("discount limit hit after validation")
			} else {
				return nil, err
			}
		}
	}
	return o, nil
}

type QuoteLine struct {
	VariantID      uuid.UUID
	Name           string
	Quantity       int
	UnitPrice      int64
	IsDiscounted   bool
	ReferencePrice int64
}

// Quote prices a cart without persisting anything: same pipeline as Checkout,
// no customer creation, no usage consumed.
func (uc *OrderUC) Quote(ctx context.Context, in CheckoutInput) (pricing.Totals, []QuoteLine, error) {
	if len(in.Items) == 0 {
		return pricing.Totals{}, nil, fmt.Errorf("empty cart: %w", domain.ErrValidation)
	}
	now := uc.now()

	var cust *domain.Customer
	if in.CustomerID != nil {
		c, err := uc.Customers.FindByID(ctx, *in.CustomerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return pricing.Totals{}, nil, err
		}
		cust = c
	} else if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		c, err := uc.Customers.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return pricing.Totals{}, nil, err
		}
		cust = c
	}
	role := in.Role
	if cust != nil {
		role = cust.Role
	}
	if role == "" {
		role = domain.RoleCustomer
	}

	lines := make([]pricing.CartLine, 0, len(in.Items))
	quoted := make([]QuoteLine, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return pricing.Totals{}, nil, fmt.Errorf("quantity %d: %w", it.Quantity, domain.ErrValidation)
		}
		v, err := uc.Products.FindVariant(ctx, it.VariantID)
		if err != nil {
			return pricing.Totals{}, nil, err
		}
		p, err := uc.Products.FindByID(ctx, v.ProductID)
		if err != nil {
			return pricing.Totals{}, nil, err
		}
		lp := pricing.ResolveLinePrice(v, role, now)
		lines = append(lines, pricing.CartLine{Variant: v, Quantity: it.Quantity})
		quoted = append(quoted, QuoteLine{
			VariantID:      v.ID,
			Name:           strings.TrimSpace(p.Name + " " + v.Name),
			Quantity:       it.Quantity,
			UnitPrice:      lp.UnitPrice,
			IsDiscounted:   lp.IsDiscounted,
			ReferencePrice: lp.ReferencePrice,
		})
	}

	var disc *domain.Discount
	if in.DiscountCode != "" {
		d, err := uc.Discount.Apply(ctx, in.DiscountCode)
		if err != nil {
			return pricing.Totals{}, nil, err
		}
		disc = d
	}

	totals, err := pricing.ComputeOrderTotals(lines, role, disc, uc.tierFor(ctx, cust, role), uc.VATRate, now)
	if err != nil {
		return pricing.Totals{}, nil, err
	}
	return totals, quoted, nil
}

func (uc *OrderUC) resolveCustomer(ctx context.Context, in CheckoutInput) (*domain.Customer, error) {
	if in.CustomerID != nil {
		return uc.Customers.FindByID(ctx, *in.CustomerID)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, nil
	}
	c, err := uc.Customers.FindByEmail(ctx, email)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	c = &domain.Customer{ID: uuid.New(), Email: email, Name: in.Name, Role: domain.RoleCustomer}
	if err := uc.Customers.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *OrderUC) tierFor(ctx context.Context, cust *domain.Customer, role domain.Role) *domain.LoyaltyTier {
	if cust == nil || uc.Loyalty == nil {
		return nil
	}
	settings, err := uc.Loyalty.Get(ctx)
	if err != nil || settings == nil {
		return nil
	}
	tiers := loyalty.ProgramTiers(settings, role)
	if len(tiers) == 0 {
		return nil
	}
	t := loyalty.TierFor(cust.LoyaltyPoints, tiers)
	return &t
}
