package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", 503)
		return
	}
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL("keymart-login"), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", 503)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	tok, err := s.oauthCfg.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("oauth exchange")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	client := s.oauthCfg.Client(r.Context(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		log.Error().Err(err).Msg("oauth userinfo")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	defer resp.Body.Close()
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Email == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	cust, err := s.customers.FindByEmail(r.Context(), info.Email)
	if errors.Is(err, domain.ErrNotFound) {
		cust = &domain.Customer{ID: uuid.New(), Email: strings.ToLower(info.Email), Name: info.Name, Role: domain.RoleCustomer}
		if err := s.customers.Save(r.Context(), cust); err != nil {
			log.Error().Err(err).Msg("create customer")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	} else if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.writeSession(w, &sessionUser{ID: cust.ID.String(), Email: cust.Email, Name: cust.Name, Role: string(cust.Role)})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) writeSession(w http.ResponseWriter, u *sessionUser) {
	b, _ := json.Marshal(u)
	h := hmac.New(sha256.New, s.sessionKey)
	h.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	val := sig + "." + base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{Name: "session", Value: val, Path: "/", MaxAge: 60 * 60 * 24 * 7, HttpOnly: true})
}

func (s *Server) readSession(r *http.Request) *sessionUser {
	c, err := r.Cookie("session")
	if err != nil {
		return nil
	}
	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return nil
	}
	sig, _ := base64.RawURLEncoding.DecodeString(parts[0])
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	h := hmac.New(sha256.New, s.sessionKey)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil
	}
	var u sessionUser
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil
	}
	return &u
}
