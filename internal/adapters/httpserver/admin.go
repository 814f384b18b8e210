package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	cfgKey := os.Getenv("ADMIN_API_KEY")
	if cfgKey == "" {
		log.Error().Msg("thiếu ADMIN_API_KEY")
		http.Error(w, "config", 500)
		return
	}
	apiKey := r.Header.Get("X-Admin-Key")
	if apiKey == "" || !secureCompare(apiKey, cfgKey) {
		http.Error(w, "unauthorized", 401)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" && len(s.adminAllowed) == 1 {
		for k := range s.adminAllowed {
			email = k
		}
	}
	if _, ok := s.adminAllowed[email]; !ok {
		http.Error(w, "forbidden", 403)
		return
	}
	tok, exp, err := s.issueAdminToken(email, 30*time.Minute)
	if err != nil {
		http.Error(w, "token", 500)
		return
	}
	writeJSON(w, 200, map[string]any{"token": tok, "exp": exp.Unix(), "email": email})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			if _, err := s.verifyAdminToken(strings.TrimSpace(auth[7:])); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		if c, err := r.Cookie("admin_token"); err == nil {
			if _, err := s.verifyAdminToken(c.Value); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "unauthorized", 401)
	})
}

func (s *Server) issueAdminToken(email string, dur time.Duration) (string, time.Time, error) {
	head := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	exp := time.Now().Add(dur)
	claims := map[string]any{"sub": email, "email": email, "role": "admin", "exp": exp.Unix(), "iat": time.Now().Unix(), "iss": "keymart"}
	b, _ := json.Marshal(claims)
	pay := base64.RawURLEncoding.EncodeToString(b)
	unsigned := head + "." + pay
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write([]byte(unsigned))
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return unsigned + "." + sig, exp, nil
}

func (s *Server) verifyAdminToken(tok string) (string, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("format")
	}
	unsigned := parts[0] + "." + parts[1]
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("sig")
	}
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write([]byte(unsigned))
	if !hmac.Equal(sig, h.Sum(nil)) {
		return "", fmt.Errorf("signature")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("payload")
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", fmt.Errorf("json")
	}
	role, _ := m["role"].(string)
	email, _ := m["email"].(string)
	expF, _ := m["exp"].(float64)
	if role != "admin" || email == "" {
		return "", fmt.Errorf("claims")
	}
	if time.Now().Unix() > int64(expF) {
		return "", fmt.Errorf("exp")
	}
	if _, ok := s.adminAllowed[strings.ToLower(email)]; !ok {
		return "", fmt.Errorf("not allowed")
	}
	return email, nil
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := 0; i < len(a); i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

func (s *Server) adminOrders(w http.ResponseWriter, r *http.Request) {
	f := domain.OrderFilter{Status: domain.OrderStatus(r.URL.Query().Get("status"))}
	list, total, err := s.orders.Orders.List(r.Context(), f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"orders": list, "total": total})
}

func (s *Server) adminOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	if err := s.fulfill.UpdateStatus(r.Context(), id, req.Status); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": string(req.Status)})
}

func (s *Server) adminOrderComplete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	if err := s.fulfill.Complete(r.Context(), id); err != nil {
		httpError(w, err)
		return
	}
	keys, err := s.keys.KeysForOrder(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"status": string(domain.OrderStatusCompleted), "licenseKeys": keys})
}

func (s *Server) adminOrderKeys(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	keys, err := s.keys.KeysForOrder(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"licenseKeys": keys})
}

func (s *Server) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(p.Name), " ", "-"))
	}
	for i := range p.Variants {
		if p.Variants[i].ID == uuid.Nil {
			p.Variants[i].ID = uuid.New()
		}
		p.Variants[i].ProductID = p.ID
	}
	if err := s.products.Save(r.Context(), &p); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 201, p)
}

func (s *Server) adminAddKeys(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	var req struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	added, err := s.fulfill.AddKeys(r.Context(), id, req.Keys)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"added": added})
}

func (s *Server) adminImportKeys(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	defer file.Close()
	added, err := s.fulfill.ImportKeysXLSX(r.Context(), id, file)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"added": added})
}

func (s *Server) adminVariantStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	n, err := s.keys.AvailableCount(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"available": n})
}

func (s *Server) adminCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var d domain.Discount
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	if d.Code == "" || d.Value <= 0 {
		httpError(w, domain.ErrValidation)
		return
	}
	if d.Type != domain.DiscountPercentage && d.Type != domain.DiscountFixed {
		httpError(w, domain.ErrValidation)
		return
	}
	if err := s.discounts.Discounts.Save(r.Context(), &d); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, 201, d)
}

func (s *Server) adminDescribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, domain.ErrValidation)
		return
	}
	text, err := s.describer.Suggest(r.Context(), req.Name, req.Category)
	if err != nil {
		log.Warn().Err(err).Msg("ai describe")
		writeJSON(w, 503, map[string]string{"error": "Tính năng AI chưa sẵn sàng"})
		return
	}
	writeJSON(w, 200, map[string]string{"description": text})
}
