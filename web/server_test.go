package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aklo360/mcliv/commerce"
	"github.com/aklo360/mcliv/site"
)

type fakeCommerce struct {
	product *commerce.Product
	cart    *commerce.Cart
	err     error

	gotLines []commerce.CartLine
	gotEmail string
	gotTag   string
	calls    int
}

func (f *fakeCommerce) ProductByHandle(_ context.Context, handle string) (*commerce.Product, error) {
	f.calls++
	if f.product != nil && handle != "edition-01" {
		return nil, nil
	}
	return f.product, f.err
}

func (f *fakeCommerce) CreateCart(_ context.Context, lines []commerce.CartLine) (*commerce.Cart, error) {
	f.calls++
	f.gotLines = lines
	return f.cart, f.err
}

func (f *fakeCommerce) Subscribe(_ context.Context, email, tag string) error {
	f.calls++
	f.gotEmail, f.gotTag = email, tag
	return f.err
}

type staticSite site.Config

func (s staticSite) Config() site.Config { return site.Config(s) }

func serve(t *testing.T, fc *fakeCommerce, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	h := New(fc, staticSite(site.Default())).Handler()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNewsletterSubscribes(t *testing.T) {
	fc := &fakeCommerce{}
	rec, out := serve(t, fc, http.MethodPost, "/api/newsletter", `{"email":" fan@studio.example "}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"ok": true, "status": "upserted"}, out)
	assert.Equal(t, "fan@studio.example", fc.gotEmail)
	assert.Equal(t, "newsletter", fc.gotTag)

	_, _ = serve(t, fc, http.MethodPost, "/api/newsletter", `{"email":"fan@studio.example","tag":"drop-02"}`)
	assert.Equal(t, "drop-02", fc.gotTag)
}

func TestNewsletterRejectsInvalidEmail(t *testing.T) {
	fc := &fakeCommerce{}
	for _, body := range []string{`{"email":"nope"}`, `{}`, `{"email":"a@b"}`} {
		rec, out := serve(t, fc, http.MethodPost, "/api/newsletter", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, map[string]any{"ok": false, "error": "Invalid email"}, out)
	}
	rec, _ := serve(t, fc, http.MethodPost, "/api/newsletter", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fc.calls)
}

func TestNewsletterUpstreamErrors(t *testing.T) {
	fc := &fakeCommerce{err: &commerce.UserErrors{Op: "customerSet", Errors: []commerce.UserError{{Field: []string{"email"}, Message: "taken"}}}}
	rec, out := serve(t, fc, http.MethodPost, "/api/newsletter", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	want := map[string]any{"ok": false, "error": []any{map[string]any{"field": []any{"email"}, "message": "taken"}}}
	assert.Empty(t, cmp.Diff(want, out))

	fc.err = &commerce.GraphQLError{API: "admin", Status: 502, Body: "bad gateway"}
	rec, out = serve(t, fc, http.MethodPost, "/api/newsletter", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, out["ok"])
	assert.Contains(t, out["error"], "admin 502")
}

func TestCartHandoff(t *testing.T) {
	fc := &fakeCommerce{cart: &commerce.Cart{ID: "gid://shopify/Cart/c1", CheckoutURL: "https://shop/checkout"}}
	rec, out := serve(t, fc, http.MethodPost, "/api/cart", `{"variantId":"gid://shopify/ProductVariant/42","quantity":"3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"ok":               true,
		"checkoutUrl":      "https://shop/checkout",
		"cartId":           "gid://shopify/Cart/c1",
		"variantNumericId": "42",
	}, out)
	assert.Equal(t, []commerce.CartLine{{VariantID: "gid://shopify/ProductVariant/42", Quantity: 3}}, fc.gotLines)

	fc.cart = &commerce.Cart{CheckoutURL: "https://shop/cart/42:1"}
	_, out = serve(t, fc, http.MethodPost, "/api/cart", `{"variantId":"gid://shopify/ProductVariant/42"}`)
	assert.Nil(t, out["cartId"])
	assert.Equal(t, 1, fc.gotLines[0].Quantity)
}

func TestCartValidationAndErrors(t *testing.T) {
	fc := &fakeCommerce{}
	rec, out := serve(t, fc, http.MethodPost, "/api/cart", `{"quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "variantId is required", out["error"])
	assert.Zero(t, fc.calls)

	fc.err = &commerce.UserErrors{Errors: []commerce.UserError{{Message: "sold out"}}}
	rec, _ = serve(t, fc, http.MethodPost, "/api/cart", `{"variantId":"v"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	fc.err = errors.New("boom")
	rec, out = serve(t, fc, http.MethodPost, "/api/cart", `{"variantId":"v"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", out["error"])
}

func TestQuantityParsing(t *testing.T) {
	cases := map[string]int{``: 1, `2`: 2, `"4"`: 4, `0`: 1, `-3`: 1, `"x"`: 1, `null`: 1, `2.9`: 2}
	for in, want := range cases {
		assert.Equal(t, want, quantity(json.RawMessage(in)), in)
	}
}

func TestProductLookup(t *testing.T) {
	fc := &fakeCommerce{product: &commerce.Product{
		ID:              "gid://shopify/Product/1",
		Title:           "Edition 01",
		DescriptionHTML: "<p>Hand <i>made</i></p>",
	}}
	rec, out := serve(t, fc, http.MethodGet, "/api/products/edition-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Edition 01", out["title"])
	assert.Equal(t, "Hand made", out["description"])
	assert.Equal(t, "<p>Hand <i>made</i></p>", out["descriptionHtml"])

	rec, out = serve(t, fc, http.MethodGet, "/api/products/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, out["ok"])

	rec, _ = serve(t, &fakeCommerce{err: commerce.ErrNotConfigured}, http.MethodGet, "/api/products/x", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSiteAndHealth(t *testing.T) {
	rec, out := serve(t, &fakeCommerce{}, http.MethodGet, "/api/site", "")
	require.Equal(t, http.StatusOK, rec.Code)
	social := out["social"].(map[string]any)
	assert.Equal(t, "mailto:info@mcliv.studio", social["email"])
	assert.Len(t, out["menu"], 4)

	rec, _ = serve(t, &fakeCommerce{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = serve(t, &fakeCommerce{}, http.MethodGet, "/api/newsletter", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDAndLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := New(&fakeCommerce{}, staticSite(site.Default()), WithLogger(zap.New(core).Sugar())).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", rec.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	ctx := entries[1].ContextMap()
	assert.Equal(t, "client-id", ctx["requestId"])
	assert.Equal(t, int64(http.StatusOK), ctx["status"])
	assert.Equal(t, "/health", ctx["path"])
}
