// Package web serves the site's JSON endpoints: newsletter signup, cart
// handoff, product lookup and site configuration.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aklo360/mcliv/commerce"
	"github.com/aklo360/mcliv/site"
)

// Commerce is the subset of the store client the handlers call.
type Commerce interface {
	ProductByHandle(ctx context.Context, handle string) (*commerce.Product, error)
	CreateCart(ctx context.Context, lines []commerce.CartLine) (*commerce.Cart, error)
	Subscribe(ctx context.Context, email, tag string) error
}

// SiteSource supplies the current site configuration.
type SiteSource interface {
	Config() site.Config
}

// Server wires the handlers. Each user action makes a single upstream
// attempt; failures are reported, never retried.
type Server struct {
	store   Commerce
	site    SiteSource
	log     *zap.SugaredLogger
	timeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithUpstreamTimeout bounds each upstream call.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a server.
func New(store Commerce, src SiteSource, opts ...Option) *Server {
	s := &Server{
		store:   store,
		site:    src,
		log:     zap.NewNop().Sugar(),
		timeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/newsletter", s.handleNewsletter)
	mux.HandleFunc("POST /api/cart", s.handleCart)
	mux.HandleFunc("GET /api/products/{handle}", s.handleProduct)
	mux.HandleFunc("GET /api/site", s.handleSite)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s.withRequestLog(mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Infow("http listening", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}
