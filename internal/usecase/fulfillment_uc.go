package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/hdnguyen-vn/keymart/internal/domain"
	"github.com/hdnguyen-vn/keymart/internal/loyalty"
)

// FulfillmentUC drives the order status machine and everything that moves
// license-key stock: assignment at completion, admin imports, and the
// back-in-stock notification drain.
type FulfillmentUC struct {
	Orders        domain.OrderRepo
	Products      domain.ProductRepo
	Keys          domain.LicenseKeyRepo
	Notifications domain.StockNotificationRepo
	Customers     domain.CustomerRepo
	Loyalty       domain.LoyaltyRepo
	Mailer        domain.BackInStockMailer
	Now           func() time.Time
}

// UpdateStatus applies one legal transition. A transition into "Hoàn thành"
// goes through Complete so keys are assigned exactly then.
func (uc *FulfillmentUC) UpdateStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) error {
	if to == domain.OrderStatusCompleted {
		return uc.Complete(ctx, orderID)
	}
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(o.Status, to) {
		return fmt.Errorf("%s -> %s: %w", o.Status, to, domain.ErrIllegalTransition)
	}
	return uc.Orders.UpdateStatus(ctx, orderID, o.Status, to)
}

// Complete transitions a processing order to completed, assigning license
// keys for every item. The status flip is claimed first, conditionally on the
// current status, so only one of two concurrent completions assigns anything.
// Assignment itself is idempotent per order: keys already attached by an
// earlier attempt count toward each item, and only the shortfall is drawn from
// the pool. If any item cannot be covered, the claim is released and the order
// stays processing with FulfillmentPending set.
func (uc *FulfillmentUC) Complete(ctx context.Context, orderID uuid.UUID) error {
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(o.Status, domain.OrderStatusCompleted) {
		return fmt.Errorf("%s -> %s: %w", o.Status, domain.OrderStatusCompleted, domain.ErrIllegalTransition)
	}
	if err := uc.Orders.UpdateStatus(ctx, o.ID, o.Status, domain.OrderStatusCompleted); err != nil {
		return err
	}

	if err := uc.assignMissingKeys(ctx, o); err != nil {
		// Release the claim; payment is already recorded, so keep the order
		// visible as pending fulfillment instead of completing with a
		// short key set.
		if rerr := uc.Orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCompleted, o.Status); rerr != nil {
			log.Error().Err(rerr).Str("order", o.ID.String()).Msg("release completion claim")
		}
		if errors.Is(err, domain.ErrOutOfStock) {
			if perr := uc.Orders.SetFulfillmentPending(ctx, o.ID, true); perr != nil {
				log.Error().Err(perr).Str("order", o.ID.String()).Msg("mark fulfillment pending")
			}
		}
		return err
	}

	if o.FulfillmentPending {
		if err := uc.Orders.SetFulfillmentPending(ctx, o.ID, false); err != nil {
			log.Error().Err(err).Str("order", o.ID.String()).Msg("clear fulfillment pending")
		}
	}
	uc.accruePoints(ctx, o)
	return nil
}

// assignMissingKeys draws keys for each item's uncovered quantity. A previous
// failed completion may have left some items fully assigned; those are never
// assigned twice.
func (uc *FulfillmentUC) assignMissingKeys(ctx context.Context, o *domain.Order) error {
	existing, err := uc.Keys.KeysForOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	have := map[uuid.UUID]int{}
	for _, k := range existing {
		have[k.VariantID]++
	}

	for _, it := range o.Items {
		covered := have[it.VariantID]
		if covered >= it.Qty {
			have[it.VariantID] = covered - it.Qty
			continue
		}
		have[it.VariantID] = 0
		if _, err := uc.Keys.AssignKeys(ctx, it.VariantID, it.Qty-covered, o.ID, o.CustomerID); err != nil {
			return fmt.Errorf("order %s variant %s: %w", o.ID, it.VariantID, err)
		}
	}
	return nil
}

func (uc *FulfillmentUC) accruePoints(ctx context.Context, o *domain.Order) {
	if o.CustomerID == nil || uc.Loyalty == nil {
		return
	}
	settings, err := uc.Loyalty.Get(ctx)
	if err != nil || settings == nil {
		return
	}
	pts := loyalty.PointsEarned(o.Total, settings.PointConversionRate)
	if pts == 0 {
		return
	}
	if err := uc.Customers.AddLoyaltyPoints(ctx, *o.CustomerID, pts); err != nil {
		log.Error().Err(err).Str("order", o.ID.String()).Msg("loyalty accrual")
	}
}

// AddKeys imports keys into a variant's pool and, when the pool went from
// empty to stocked, drains pending notify-me requests.
func (uc *FulfillmentUC) AddKeys(ctx context.Context, variantID uuid.UUID, keys []string) (int64, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return 0, fmt.Errorf("no keys to import: %w", domain.ErrValidation)
	}

	before, after, err := uc.Keys.AddKeys(ctx, variantID, cleaned)
	if err != nil {
		return 0, err
	}
	if before == 0 && after > 0 {
		v, err := uc.Products.FindVariant(ctx, variantID)
		if err != nil {
			return after - before, err
		}
		uc.drainNotifications(ctx, v.ProductID, v.ID)
	}
	return after - before, nil
}

// ImportKeysXLSX reads keys from the first column of the first sheet of an
// uploaded workbook, skipping an optional header row.
func (uc *FulfillmentUC) ImportKeysXLSX(ctx context.Context, variantID uuid.UUID, r io.Reader) (int64, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("open workbook: %w", domain.ErrValidation)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return 0, fmt.Errorf("read sheet: %w", domain.ErrValidation)
	}
	keys := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		if i == 0 && strings.EqualFold(cell, "key") {
			continue
		}
		keys = append(keys, cell)
	}
	return uc.AddKeys(ctx, variantID, keys)
}

// drainNotifications sends a back-in-stock email for every pending request on
// the variant, then marks the successfully sent ones in a single batch.
// Ordering is send-then-mark: a crash in between can re-notify on the next
// restock, which beats silently dropping a notification.
func (uc *FulfillmentUC) drainNotifications(ctx context.Context, productID, variantID uuid.UUID) {
	pending, err := uc.Notifications.Pending(ctx, productID, variantID)
	if err != nil {
		log.Error().Err(err).Str("variant", variantID.String()).Msg("load pending notifications")
		return
	}
	if len(pending) == 0 {
		return
	}
	sent := make([]uuid.UUID, 0, len(pending))
	for _, n := range pending {
		if err := uc.Mailer.SendBackInStock(ctx, n); err != nil {
			log.Error().Err(err).Str("email", n.Email).Msg("back-in-stock send")
			continue
		}
		sent = append(sent, n.ID)
	}
	if len(sent) == 0 {
		return
	}
	if err := uc.Notifications.MarkNotified(ctx, sent); err != nil {
		log.Error().Err(err).Int("count", len(sent)).Msg("mark notified")
	}
}

// RegisterStockNotification records a notify-me request for an out-of-stock
// variant, denormalizing the product fields the email needs.
func (uc *FulfillmentUC) RegisterStockNotification(ctx context.Context, email string, variantID uuid.UUID) (*domain.StockNotification, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email: %w", domain.ErrValidation)
	}
	v, err := uc.Products.FindVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	p, err := uc.Products.FindByID(ctx, v.ProductID)
	if err != nil {
		return nil, err
	}
	n := &domain.StockNotification{
		ID:          uuid.New(),
		Email:       email,
		ProductID:   p.ID,
		VariantID:   v.ID,
		ProductName: p.Name,
		VariantName: v.Name,
		ProductSlug: p.Slug,
	}
	if err := uc.Notifications.Save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
