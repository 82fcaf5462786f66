package navigation

import (
	"errors"
	"strings"

	"finitefield.org/mitienda-web/internal/page"
)

var (
	errDocumentRequired = errors.New("navigation: document is required")
	errRendererRequired = errors.New("navigation: detail renderer is required")
)

// DetailRenderer fills and shows the product detail panel. It reports false, changing
// nothing, when the product cannot be resolved.
type DetailRenderer interface {
	ShowProductDetail(doc *page.Document, productID string) bool
}

// ControllerDeps wires a Controller.
type ControllerDeps struct {
	Document *page.Document
	Renderer DetailRenderer
	// OnTransition, when set, observes every completed transition.
	OnTransition func(State)
}

// Controller drives section visibility and the address fragment for one document.
type Controller struct {
	doc      *page.Document
	renderer DetailRenderer
	observe  func(State)
	current  State
	known    bool
}

// NewController constructs a Controller.
func NewController(deps ControllerDeps) (*Controller, error) {
	if deps.Document == nil {
		return nil, errDocumentRequired
	}
	if deps.Renderer == nil {
		return nil, errRendererRequired
	}
	observe := deps.OnTransition
	if observe == nil {
		observe = func(State) {}
	}
	return &Controller{doc: deps.Document, renderer: deps.Renderer, observe: observe}, nil
}

// Current returns the displayed state. ok is false while the initial markup still stands.
func (c *Controller) Current() (State, bool) { return c.current, c.known }

// Fragment returns the document's address fragment.
func (c *Controller) Fragment() string { return c.doc.Fragment() }

// GoHome shows the landing page and sets the fragment to "home".
func (c *Controller) GoHome() {
	c.show(HomeState())
	c.doc.SetFragment(FragmentHome)
}

// GoCart shows the cart and sets the fragment to "carrito".
func (c *Controller) GoCart() {
	c.show(CartState())
	c.doc.SetFragment(FragmentCart)
}

// GoDetail shows productID's detail panel and sets the fragment to "product-<id>".
// When the product cannot be resolved nothing changes, the fragment included.
func (c *Controller) GoDetail(productID string) bool {
	id := strings.TrimSpace(productID)
	if !c.showDetail(id) {
		return false
	}
	c.doc.SetFragment(DetailState(id).Fragment())
	return true
}

// HandleInitialFragment applies the fragment a page was loaded with. The fragment itself
// is kept as loaded; only the visible sections change.
func (c *Controller) HandleInitialFragment(fragment string) {
	c.doc.SetFragment(fragment)
	route := ParseFragment(fragment)
	if route.None {
		return
	}
	switch route.State.Kind {
	case Detail:
		c.showDetail(route.State.ProductID)
	default:
		c.show(route.State)
	}
}

func (c *Controller) show(s State) {
	Apply(c.doc, s)
	c.transitioned(s)
}

func (c *Controller) showDetail(productID string) bool {
	if !c.renderer.ShowProductDetail(c.doc, productID) {
		return false
	}
	c.transitioned(DetailState(productID))
	return true
}

func (c *Controller) transitioned(s State) {
	c.current = s
	c.known = true
	c.observe(s)
}
