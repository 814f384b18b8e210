package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	variants map[uuid.UUID]*domain.Variant
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: map[uuid.UUID]*domain.Product{},
		variants: map[uuid.UUID]*domain.Variant{},
	}
}

func (r *fakeProductRepo) add(p *domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	for i := range p.Variants {
		v := p.Variants[i]
		v.ProductID = p.ID
		r.variants[v.ID] = &v
	}
}

func (r *fakeProductRepo) Save(ctx context.Context, p *domain.Product) error {
	r.add(p)
	return nil
}

func (r *fakeProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) SaveVariant(ctx context.Context, v *domain.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.ID] = v
	return nil
}

func (r *fakeProductRepo) FindVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.variants[id]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*domain.Order{}}
}

func (r *fakeOrderRepo) Save(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeOrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrIllegalTransition
	}
	o.Status = to
	return nil
}

func (r *fakeOrderRepo) SetFulfillmentPending(ctx context.Context, id uuid.UUID, pending bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.FulfillmentPending = pending
	return nil
}

type fakeDiscountRepo struct {
	mu        sync.Mutex
	discounts map[uuid.UUID]*domain.Discount
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{discounts: map[uuid.UUID]*domain.Discount{}}
}

func (r *fakeDiscountRepo) Save(ctx context.Context, d *domain.Discount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Code = strings.ToUpper(d.Code)
	cp := *d
	r.discounts[d.ID] = &cp
	return nil
}

func (r *fakeDiscountRepo) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = strings.ToUpper(code)
	for _, d := range r.discounts {
		if d.Code == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDiscountRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if d.UsageLimit > 0 && d.TimesUsed >= d.UsageLimit {
		return domain.ErrDiscountUsageExceeded
	}
	d.TimesUsed++
	return nil
}

func (r *fakeDiscountRepo) timesUsed(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discounts[id].TimesUsed
}

// fakeKeyRepo mirrors the transactional pool semantics: all-or-nothing FIFO
// assignment under one lock.
type fakeKeyRepo struct {
	mu   sync.Mutex
	pool map[uuid.UUID][]domain.LicenseKey
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{pool: map[uuid.UUID][]domain.LicenseKey{}}
}

func (r *fakeKeyRepo) AddKeys(ctx context.Context, variantID uuid.UUID, keys []string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := r.availableLocked(variantID)
	existing := map[string]bool{}
	for _, k := range r.pool[variantID] {
		existing[k.Key] = true
	}
	for _, k := range keys {
		if existing[k] {
			continue
		}
		existing[k] = true
		r.pool[variantID] = append(r.pool[variantID], domain.LicenseKey{
			ID: uuid.New(), VariantID: variantID, Key: k, Status: domain.KeyAvailable, CreatedAt: time.Now(),
		})
	}
	return before, r.availableLocked(variantID), nil
}

func (r *fakeKeyRepo) AssignKeys(ctx context.Context, variantID uuid.UUID, qty int, orderID uuid.UUID, customerID *uuid.UUID) ([]domain.LicenseKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if qty <= 0 {
		return nil, domain.ErrValidation
	}
	var avail []*domain.LicenseKey
	keys := r.pool[variantID]
	for i := range keys {
		if keys[i].Status == domain.KeyAvailable {
			avail = append(avail, &keys[i])
		}
	}
	if len(avail) < qty {
		return nil, domain.ErrOutOfStock
	}
	now := time.Now()
	out := make([]domain.LicenseKey, 0, qty)
	for _, k := range avail[:qty] {
		k.Status = domain.KeyUsed
		k.OrderID = &orderID
		k.CustomerID = customerID
		at := now
		k.AssignedAt = &at
		out = append(out, *k)
	}
	return out, nil
}

func (r *fakeKeyRepo) AvailableCount(ctx context.Context, variantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.availableLocked(variantID), nil
}

func (r *fakeKeyRepo) availableLocked(variantID uuid.UUID) int64 {
	var n int64
	for _, k := range r.pool[variantID] {
		if k.Status == domain.KeyAvailable {
			n++
		}
	}
	return n
}

func (r *fakeKeyRepo) KeysForOrder(ctx context.Context, orderID uuid.UUID) ([]domain.LicenseKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LicenseKey
	for _, keys := range r.pool {
		for _, k := range keys {
			if k.OrderID != nil && *k.OrderID == orderID {
				out = append(out, k)
			}
		}
	}
	return out, nil
}

func (r *fakeKeyRepo) totalCount(variantID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pool[variantID])
}

func (r *fakeKeyRepo) usedKeys(variantID uuid.UUID) []domain.LicenseKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LicenseKey
	for _, k := range r.pool[variantID] {
		if k.Status == domain.KeyUsed {
			out = append(out, k)
		}
	}
	return out
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	list []*domain.StockNotification
}

func (r *fakeNotificationRepo) Save(ctx context.Context, n *domain.StockNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.list = append(r.list, &cp)
	return nil
}

func (r *fakeNotificationRepo) Pending(ctx context.Context, productID, variantID uuid.UUID) ([]domain.StockNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StockNotification
	for _, n := range r.list {
		if n.ProductID == productID && n.VariantID == variantID && !n.Notified {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := map[uuid.UUID]bool{}
	for _, id := range ids {
		set[id] = true
	}
	for _, n := range r.list {
		if set[n.ID] {
			n.Notified = true
		}
	}
	return nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*domain.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[uuid.UUID]*domain.Customer{}}
}

func (r *fakeCustomerRepo) Save(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, c := range r.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCustomerRepo) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.LoyaltyPoints += points
	return nil
}

type fakeLoyaltyRepo struct {
	settings *domain.LoyaltySettings
}

func (r *fakeLoyaltyRepo) Get(ctx context.Context) (*domain.LoyaltySettings, error) {
	if r.settings == nil {
		return nil, domain.ErrNotFound
	}
	return r.settings, nil
}

func (r *fakeLoyaltyRepo) Save(ctx context.Context, s *domain.LoyaltySettings) error {
	r.settings = s
	return nil
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []domain.StockNotification
	failFor map[string]error
}

func (m *fakeMailer) SendBackInStock(ctx context.Context, n domain.StockNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[n.Email]; ok {
		return err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
