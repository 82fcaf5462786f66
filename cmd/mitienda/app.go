package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"finitefield.org/mitienda-web/internal/catalog"
	"finitefield.org/mitienda-web/internal/config"
	"finitefield.org/mitienda-web/internal/i18n"
	"finitefield.org/mitienda-web/internal/observability"
	"finitefield.org/mitienda-web/internal/storage"
	"finitefield.org/mitienda-web/internal/storefront"
	"finitefield.org/mitienda-web/internal/view"
)

// localVisitor owns the cart edited from the command line.
const localVisitor = "local"

// app is the storefront assembled from configuration.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	bundle     *i18n.Bundle
	catalog    *catalog.Catalog
	backend    storage.Backend
	registry   *prometheus.Registry
	storefront *storefront.Storefront
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	bundle := i18n.Default()
	cat := catalog.Default()
	v, err := view.New(view.Deps{Catalog: cat, Bundle: bundle})
	if err != nil {
		return nil, err
	}
	backend, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sf, err := storefront.New(storefront.Deps{
		View:    v,
		Backend: backend,
		Logger:  logger,
		Metrics: observability.NewMetrics(registry),
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	logger.Debug("storefront ready",
		zap.String("storageDriver", cfg.Storage.Driver),
		zap.Int("products", cat.Len()),
	)
	return &app{
		cfg:        cfg,
		logger:     logger,
		bundle:     bundle,
		catalog:    cat,
		backend:    backend,
		registry:   registry,
		storefront: sf,
	}, nil
}

func (a *app) Close() error { return a.backend.Close() }
