// Package httpserver exposes the storefront and admin JSON API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/hdnguyen-vn/keymart/internal/adapters/ai"
	"github.com/hdnguyen-vn/keymart/internal/domain"
	"github.com/hdnguyen-vn/keymart/internal/pricing"
	"github.com/hdnguyen-vn/keymart/internal/usecase"
)

type Server struct {
	products  domain.ProductRepo
	customers domain.CustomerRepo
	keys      domain.LicenseKeyRepo
	orders    *usecase.OrderUC
	fulfill   *usecase.FulfillmentUC
	discounts *usecase.DiscountUC
	describer *ai.Describer
	oauthCfg  *oauth2.Config

	adminSecret  []byte
	adminAllowed map[string]struct{}
	sessionKey   []byte
}

func New(
	products domain.ProductRepo,
	customers domain.CustomerRepo,
	keys domain.LicenseKeyRepo,
	orders *usecase.OrderUC,
	fulfill *usecase.FulfillmentUC,
	discounts *usecase.DiscountUC,
	describer *ai.Describer,
	oauthCfg *oauth2.Config,
) http.Handler {
	s := &Server{
		products:     products,
		customers:    customers,
		keys:         keys,
		orders:       orders,
		fulfill:      fulfill,
		discounts:    discounts,
		describer:    describer,
		oauthCfg:     oauthCfg,
		adminSecret:  secretKey(),
		adminAllowed: map[string]struct{}{},
		sessionKey:   secretKey(),
	}
	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			s.adminAllowed[e] = struct{}{}
		}
	}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.apiProducts)
		r.Get("/products/{slug}", s.apiProduct)
		r.Post("/cart/quote", s.apiCartQuote)
		r.Post("/checkout", s.apiCheckout)
		r.Get("/orders/{id}", s.apiOrder)
		r.Post("/discounts/validate", s.apiValidateDiscount)
		r.Post("/stock-notifications", s.apiStockNotification)
	})

	r.Get("/auth/google/login", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)
	r.Post("/logout", s.handleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/orders", s.adminOrders)
			r.Post("/orders/{id}/status", s.adminOrderStatus)
			r.Post("/orders/{id}/complete", s.adminOrderComplete)
			r.Get("/orders/{id}/keys", s.adminOrderKeys)
			r.Post("/products", s.adminCreateProduct)
			r.Post("/variants/{id}/keys", s.adminAddKeys)
			r.Post("/variants/{id}/keys/import", s.adminImportKeys)
			r.Get("/variants/{id}/stock", s.adminVariantStock)
			r.Post("/discounts", s.adminCreateDiscount)
			r.Post("/ai/describe", s.adminDescribe)
		})
	})

	return r
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	f := domain.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}
	list, total, err := s.products.List(r.Context(), f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"products": list, "total": total})
}

func (s *Server) apiProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, p)
}

type cartRequest struct {
	Items []struct {
		VariantID uuid.UUID `json:"variantId"`
		Quantity  int       `json:"quantity"`
	} `json:"items"`
	DiscountCode  string `json:"discountCode"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	PaymentMethod string `json:"paymentMethod"`
}

func (cr cartRequest) checkoutInput(u *sessionUser) usecase.CheckoutInput {
	in := usecase.CheckoutInput{
		Email:         cr.Email,
		Name:          cr.Name,
		DiscountCode:  cr.DiscountCode,
		PaymentMethod: cr.PaymentMethod,
		Role:          domain.RoleCustomer,
	}
	if u != nil {
		in.Email = u.Email
		in.Name = u.Name
		if id, err := uuid.Parse(u.ID); err == nil {
			in.CustomerID = &id
		}
	}
	for _, it := range cr.Items {
		in.Items = append(in.Items, usecase.CheckoutItem{VariantID: it.VariantID, Quantity: it.Quantity})
	}
	return in
}

func (s *Server) apiCartQuote(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	totals, lines, err := s.orders.Quote(r.Context(), req.checkoutInput(s.readSession(r)))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"totals": totals, "lines": lines})
}

func (s *Server) apiCheckout(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	o, err := s.orders.Checkout(r.Context(), req.checkoutInput(s.readSession(r)))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 201, o)
}

func (s *Server) apiOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	o, err := s.orders.Orders.FindByID(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	resp := map[string]any{"order": o}
	if o.Status == domain.OrderStatusCompleted {
		if keys, err := s.keys.KeysForOrder(r.Context(), o.ID); err == nil {
			resp["licenseKeys"] = keys
		}
	}
	writeJSON(w, 200, resp)
}

func (s *Server) apiValidateDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"code"`
		Subtotal int64  `json:"subtotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	d, err := s.discounts.Apply(r.Context(), req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"id":             d.ID,
		"code":           d.Code,
		"type":           d.Type,
		"value":          d.Value,
		"discountAmount": pricing.DiscountAmount(d, req.Subtotal),
	})
}

func (s *Server) apiStockNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string    `json:"email"`
		VariantID uuid.UUID `json:"variantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	n, err := s.fulfill.RegisterStockNotification(r.Context(), req.Email, req.VariantID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 201, map[string]any{"id": n.ID, "message": "Chúng tôi sẽ báo bạn khi có hàng"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// httpError maps domain errors to a status and a Vietnamese user message.
func httpError(w http.ResponseWriter, err error) {
	var code int
	var msg string
	switch {
	case errors.Is(err, domain.ErrValidation):
		code, msg = 400, "Dữ liệu không hợp lệ"
	case errors.Is(err, domain.ErrNotFound):
		code, msg = 404, "Không tìm thấy"
	case errors.Is(err, domain.ErrDiscountInactive):
		code, msg = 400, "Mã giảm giá không còn hiệu lực"
	case errors.Is(err, domain.ErrDiscountExpired):
		code, msg = 400, "Mã giảm giá đã hết hạn"
	case errors.Is(err, domain.ErrDiscountUsageExceeded):
		code, msg = 400, "Mã giảm giá đã đạt giới hạn sử dụng"
	case errors.Is(err, domain.ErrOutOfStock):
		code, msg = 409, "Sản phẩm tạm hết hàng, vui lòng chọn phiên bản khác"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		code, msg = 503, "Hệ thống đang bận, vui lòng thử lại"
	case errors.Is(err, domain.ErrIllegalTransition):
		code, msg = 409, "Không thể chuyển trạng thái đơn hàng"
	default:
		code, msg = 500, "Lỗi hệ thống"
		log.Error().Err(err).Msg("unhandled")
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func secretKey() []byte {
	k := os.Getenv("SESSION_KEY")
	if k == "" {
		k = "dev-insecure"
	}
	return []byte(k)
}
