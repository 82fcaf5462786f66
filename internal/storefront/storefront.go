// Package storefront assembles a page session: the document, the visitor's cart store,
// the renderer, the navigation controller and the control bindings.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"finitefield.org/mitienda-web/internal/binding"
	"finitefield.org/mitienda-web/internal/cart"
	"finitefield.org/mitienda-web/internal/navigation"
	"finitefield.org/mitienda-web/internal/observability"
	"finitefield.org/mitienda-web/internal/page"
	"finitefield.org/mitienda-web/internal/storage"
	"finitefield.org/mitienda-web/internal/view"
)

var (
	errViewRequired    = errors.New("storefront: view is required")
	errBackendRequired = errors.New("storefront: storage backend is required")
)

// Deps wires a Storefront.
type Deps struct {
	View    *view.View
	Backend storage.Backend
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Storefront opens page sessions.
type Storefront struct {
	view    *view.View
	backend storage.Backend
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New constructs a Storefront.
func New(deps Deps) (*Storefront, error) {
	if deps.View == nil {
		return nil, errViewRequired
	}
	if deps.Backend == nil {
		return nil, errBackendRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storefront{view: deps.View, backend: deps.Backend, logger: logger, metrics: deps.Metrics}, nil
}

// Session is one loaded page for one visitor.
type Session struct {
	Document   *page.Document
	Store      *cart.Store
	Renderer   *view.Renderer
	Controller *navigation.Controller
	Binder     *binding.Binder

	logger  *zap.Logger
	metrics *observability.Metrics
}

// Open loads the page for visitorID in lang and applies the fragment it was requested with:
// render the grid, the badge and the cart lines, bind the controls, then route the fragment.
// A cart that cannot be read from storage renders as empty; the failure is logged.
func (s *Storefront) Open(ctx context.Context, visitorID, lang, fragment string) (*Session, error) {
	slot, err := s.backend.Slot(visitorID)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("visitorID", visitorID))
	store, err := cart.NewStore(cart.StoreDeps{Storage: slot, Logger: logger})
	if err != nil {
		return nil, err
	}

	renderer := s.view.Renderer(lang)
	doc, err := renderer.NewDocument()
	if err != nil {
		return nil, err
	}

	controller, err := navigation.NewController(navigation.ControllerDeps{
		Document: doc,
		Renderer: renderer,
		OnTransition: func(st navigation.State) {
			s.metrics.Transitioned(st.Kind.String())
		},
	})
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Document:   doc,
		Store:      store,
		Renderer:   renderer,
		Controller: controller,
		logger:     logger,
		metrics:    s.metrics,
	}
	sess.Binder = binding.NewBinder(func(c binding.Control, err error) {
		s.metrics.ControlDispatched(string(c), err)
	})
	if err := binding.Wire(sess.Binder, binding.Root{
		Document:  doc,
		Cart:      sess,
		Views:     renderer,
		Navigator: controller,
	}); err != nil {
		return nil, err
	}

	if err := renderer.RenderProducts(doc); err != nil {
		return nil, err
	}
	st, err := store.Load(ctx)
	if err != nil {
		logger.Error("cart unavailable, rendering empty cart", zap.Error(err))
		st = cart.State{}
	}
	renderer.UpdateCartCount(doc, st)
	if err := renderer.RenderCartItems(doc, st); err != nil {
		return nil, err
	}
	controller.HandleInitialFragment(fragment)
	s.metrics.PageLoaded()
	return sess, nil
}

// Add forwards to the cart store and records the units added.
func (s *Session) Add(ctx context.Context, productID string, quantity int) (cart.State, error) {
	st, err := s.Store.Add(ctx, productID, quantity)
	if err == nil {
		s.metrics.UnitsAdded(quantity)
	}
	return st, err
}

// Clear forwards to the cart store.
func (s *Session) Clear(ctx context.Context) (cart.State, error) {
	return s.Store.Clear(ctx)
}

// Dispatch activates a control.
func (s *Session) Dispatch(ctx context.Context, ev binding.Event) error {
	if err := s.Binder.Dispatch(ctx, ev); err != nil {
		s.logger.Debug("control dispatch failed",
			zap.String("control", string(ev.Control)),
			zap.String("productID", ev.ProductID),
			zap.Error(err),
		)
		return fmt.Errorf("storefront: %s: %w", ev.Control, err)
	}
	return nil
}

// Fragment is the page's current address fragment.
func (s *Session) Fragment() string { return s.Controller.Fragment() }

// Render writes the page.
func (s *Session) Render(w io.Writer) error { return s.Document.Render(w) }
