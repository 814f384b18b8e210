package domain

import (
	"context"

	"github.com/google/uuid"
)

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	SaveVariant(ctx context.Context, v *Variant) error
	FindVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
}

type OrderRepo interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	// UpdateStatus flips the order from one status to another. The write is
	// conditional on the current status, so of two concurrent transitions only
	// one wins; the loser gets ErrIllegalTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) error
	SetFulfillmentPending(ctx context.Context, id uuid.UUID, pending bool) error
}

type DiscountRepo interface {
	Save(ctx context.Context, d *Discount) error
	FindByCode(ctx context.Context, code string) (*Discount, error)
	// IncrementUsage bumps TimesUsed by one, but only while the usage limit
	// is not yet reached; at the limit it fails with ErrDiscountUsageExceeded.
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

// LicenseKeyRepo is the scarce-resource pool. AssignKeys must be effectively
// exclusive per variant: concurrent calls never hand out the same key and the
// total key count is conserved.
type LicenseKeyRepo interface {
	// AddKeys imports keys for a variant, skipping duplicates, and reports
	// the available count before and after so callers can detect a
	// zero-to-positive restock.
	AddKeys(ctx context.Context, variantID uuid.UUID, keys []string) (before, after int64, err error)
	// AssignKeys moves exactly qty keys from available to used, oldest first,
	// or fails with ErrOutOfStock leaving the pool untouched.
	AssignKeys(ctx context.Context, variantID uuid.UUID, qty int, orderID uuid.UUID, customerID *uuid.UUID) ([]LicenseKey, error)
	AvailableCount(ctx context.Context, variantID uuid.UUID) (int64, error)
	KeysForOrder(ctx context.Context, orderID uuid.UUID) ([]LicenseKey, error)
}

type StockNotificationRepo interface {
	Save(ctx context.Context, n *StockNotification) error
	Pending(ctx context.Context, productID, variantID uuid.UUID) ([]StockNotification, error)
	MarkNotified(ctx context.Context, ids []uuid.UUID) error
}

type CustomerRepo interface {
	Save(ctx context.Context, c *Customer) error
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int64) error
}

type LoyaltyRepo interface {
	Get(ctx context.Context) (*LoyaltySettings, error)
	Save(ctx context.Context, s *LoyaltySettings) error
}

// BackInStockMailer delivers a restock notice. Sends are awaited so the
// caller can decide what to mark as notified.
type BackInStockMailer interface {
	SendBackInStock(ctx context.Context, n StockNotification) error
}
