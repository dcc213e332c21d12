// Package commerce is a thin client for the headless store's Storefront and
// Admin GraphQL APIs. It covers exactly the calls the site makes: product
// lookup by handle, cart creation and newsletter consent.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIVersion is the GraphQL API version used when none is configured.
const DefaultAPIVersion = "2025-07"

const (
	storefrontHeader = "X-Shopify-Storefront-Access-Token"
	adminHeader      = "X-Shopify-Access-Token"
)

// Config holds the store endpoint and credentials.
type Config struct {
	StoreDomain     string
	StorefrontToken string
	AdminToken      string
	APIVersion      string
}

// ConfigFromEnv reads SHOPIFY_STORE_DOMAIN, SHOPIFY_STOREFRONT_TOKEN,
// SHOPIFY_ADMIN_TOKEN and SHOPIFY_API_VERSION.
func ConfigFromEnv() Config {
	return Config{
		StoreDomain:     os.Getenv("SHOPIFY_STORE_DOMAIN"),
		StorefrontToken: os.Getenv("SHOPIFY_STOREFRONT_TOKEN"),
		AdminToken:      os.Getenv("SHOPIFY_ADMIN_TOKEN"),
		APIVersion:      os.Getenv("SHOPIFY_API_VERSION"),
	}
}

// Client talks to one store. It is safe for concurrent use.
type Client struct {
	cfg    Config
	scheme string
	http   *http.Client
	log    *zap.SugaredLogger
	now    func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Its redirect policy is overridden so
// that redirects can be re-POSTed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

// WithScheme sets the URL scheme for API endpoints (default https).
func WithScheme(s string) Option {
	return func(c *Client) { c.scheme = s }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock sets the time source used for consent timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client. Missing credentials are not an error here; calls
// that need them fail with ErrNotConfigured.
func New(cfg Config, opts ...Option) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	c := &Client{
		cfg:    cfg,
		scheme: "https",
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    zap.NewNop().Sugar(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if cfg.StoreDomain == "" {
		c.log.Warn("commerce: store domain not set")
	}
	return c
}

// Config returns the client's configuration with API version resolved.
func (c *Client) Config() Config { return c.cfg }

type api struct {
	name   string
	path   string
	header string
	token  string
}

func (c *Client) storefront() api {
	return api{
		name:   "storefront",
		path:   "/api/" + c.cfg.APIVersion + "/graphql.json",
		header: storefrontHeader,
		token:  c.cfg.StorefrontToken,
	}
}

func (c *Client) admin() api {
	return api{
		name:   "admin",
		path:   "/admin/api/" + c.cfg.APIVersion + "/graphql.json",
		header: adminHeader,
		token:  c.cfg.AdminToken,
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

// do posts one GraphQL operation and decodes its data into out. A single
// 3xx hop is followed by re-POSTing the same body.
func (c *Client) do(ctx context.Context, a api, query string, vars map[string]any, out any) error {
	if c.cfg.StoreDomain == "" || a.token == "" {
		return fmt.Errorf("%w: %s", ErrNotConfigured, a.name)
	}
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", a.name, err)
	}
	endpoint := c.scheme + "://" + c.cfg.StoreDomain + a.path

	resp, err := c.post(ctx, a, endpoint, body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc, err := resp.Location()
		resp.Body.Close()
		if err != nil {
			return &GraphQLError{API: a.name, Status: resp.StatusCode, Body: "redirect without Location header"}
		}
		c.log.Debugw("following redirect", "api", a.name, "location", loc.String())
		resp, err = c.post(ctx, a, loc.String(), body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read failed: %w", a.name, err)
	}
	var env gqlResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &GraphQLError{API: a.name, Status: resp.StatusCode, Body: truncate(raw, 400), NonJSON: true}
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || len(env.Errors) > 0 {
		gerr := &GraphQLError{API: a.name, Status: resp.StatusCode, Body: truncate(raw, 400)}
		for _, e := range env.Errors {
			gerr.Messages = append(gerr.Messages, errorMessage(e))
		}
		return gerr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s data: %w", a.name, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, a api, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", a.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(a.header, a.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", a.name, err)
	}
	return resp, nil
}

func errorMessage(raw json.RawMessage) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Message != "" {
		return e.Message
	}
	return string(raw)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
