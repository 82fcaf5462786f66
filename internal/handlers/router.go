// Package handlers serves the storefront over HTTP.
package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"finitefield.org/mitienda-web/internal/i18n"
	mw "finitefield.org/mitienda-web/internal/middleware"
	"finitefield.org/mitienda-web/internal/storefront"
)

var (
	errStorefrontRequired = errors.New("handlers: storefront is required")
	errBundleRequired     = errors.New("handlers: i18n bundle is required")
	errSessionsRequired   = errors.New("handlers: sessions are required")
)

// Deps wires the router.
type Deps struct {
	Storefront *storefront.Storefront
	Bundle     *i18n.Bundle
	Sessions   *mw.Sessions
	Logger     *zap.Logger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Assets is served under /assets/. Nil disables the endpoint.
	Assets         fs.FS
	RequestTimeout time.Duration
}

// NewRouter builds the storefront HTTP handler.
func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Storefront == nil {
		return nil, errStorefrontRequired
	}
	if deps.Bundle == nil {
		return nil, errBundleRequired
	}
	if deps.Sessions == nil {
		return nil, errSessionsRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	h := &storefrontHandler{storefront: deps.Storefront}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	if deps.Assets != nil {
		r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(deps.Assets)))
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.HTMX)
		r.Use(deps.Sessions.Middleware)
		r.Use(mw.Logger(logger))
		r.Use(deps.Sessions.CSRF)
		r.Use(mw.Locale(deps.Bundle))

		r.Get("/", h.page)
		r.Post("/controls/{control}", h.control)
	})
	return r, nil
}
