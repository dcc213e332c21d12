package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aklo360/mcliv/commerce"
	"github.com/aklo360/mcliv/site"
)

const maxBody = 1 << 16

type failure struct {
	OK    bool `json:"ok"`
	Error any  `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg any) {
	writeJSON(w, status, failure{OK: false, Error: msg})
}

// upstreamError maps a store error to a response: user-facing validation
// failures are 400, everything else 500.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var uerr *commerce.UserErrors
	if errors.As(err, &uerr) {
		writeError(w, http.StatusBadRequest, uerr.Errors)
		return
	}
	s.log.Errorw("upstream call failed", "path", r.URL.Path, "requestId", RequestID(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) upstream(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeout)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
}

type newsletterRequest struct {
	Email string `json:"email"`
	Tag   string `json:"tag"`
}

func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !commerce.ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}
	if req.Tag == "" {
		req.Tag = s.site.Config().Newsletter.DefaultTag
	}

	ctx, cancel := s.upstream(r)
	defer cancel()
	if err := s.store.Subscribe(ctx, req.Email, req.Tag); err != nil {
		if errors.Is(err, commerce.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, "Invalid email")
			return
		}
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "upserted"})
}

type cartRequest struct {
	VariantID string          `json:"variantId"`
	Quantity  json.RawMessage `json:"quantity"`
}

type cartResponse struct {
	OK               bool    `json:"ok"`
	CheckoutURL      string  `json:"checkoutUrl"`
	CartID           *string `json:"cartId"`
	VariantNumericID *string `json:"variantNumericId"`
}

// quantity accepts a JSON number or numeric string; anything else, or a
// value below 1, means 1.
func quantity(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" {
		return 1
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 1 {
		return 1
	}
	return int(f)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.VariantID) == "" {
		writeError(w, http.StatusBadRequest, "variantId is required")
		return
	}

	ctx, cancel := s.upstream(r)
	defer cancel()
	cart, err := s.store.CreateCart(ctx, []commerce.CartLine{{VariantID: req.VariantID, Quantity: quantity(req.Quantity)}})
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{
		OK:               true,
		CheckoutURL:      cart.CheckoutURL,
		CartID:           optional(cart.ID),
		VariantNumericID: optional(commerce.VariantNumericID(req.VariantID)),
	})
}

type productResponse struct {
	*commerce.Product
	Description string `json:"description"`
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	ctx, cancel := s.upstream(r)
	defer cancel()
	p, err := s.store.ProductByHandle(ctx, handle)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: p, Description: p.Description()})
}

type siteResponse struct {
	Name   string          `json:"name"`
	Social site.Social     `json:"social"`
	Menu   []site.MenuItem `json:"menu"`
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	cfg := s.site.Config()
	writeJSON(w, http.StatusOK, siteResponse{
		Name:   cfg.Name,
		Social: cfg.Social,
		Menu:   cfg.HeaderMenu(),
	})
}
