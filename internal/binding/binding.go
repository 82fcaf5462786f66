// Package binding connects the storefront's named controls to cart and navigation
// operations.
package binding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"finitefield.org/mitienda-web/internal/cart"
	"finitefield.org/mitienda-web/internal/page"
)

// Control names an interactive element by its stable identity.
type Control string

// Controls exposed by the storefront page.
const (
	AddToCart  Control = "add-to-cart"
	ViewDetail Control = "view-detail"
	DetailAdd  Control = "detail-add"
	DetailBack Control = "detail-back"
	NavCart    Control = "nav-cart"
	NavHome    Control = "nav-home"
	ClearCart  Control = "clear-cart"
)

var (
	// ErrUnknownControl is returned by Dispatch for controls without a handler.
	ErrUnknownControl = errors.New("binding: unknown control")

	errRootIncomplete = errors.New("binding: root requires document, cart, views and navigator")
)

// ParseControl validates a control name.
func ParseControl(name string) (Control, error) {
	c := Control(strings.ToLower(strings.TrimSpace(name)))
	switch c {
	case AddToCart, ViewDetail, DetailAdd, DetailBack, NavCart, NavHome, ClearCart:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
}

// Event is one activation of a control.
type Event struct {
	Control   Control
	ProductID string
	// Quantity applies to add controls; zero means one.
	Quantity int
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error

// Binder maps controls to handlers.
type Binder struct {
	handlers map[Control]Handler
	observe  func(Control, error)
}

// NewBinder returns an empty binder. observe, when non-nil, sees every dispatch outcome.
func NewBinder(observe func(Control, error)) *Binder {
	if observe == nil {
		observe = func(Control, error) {}
	}
	return &Binder{handlers: make(map[Control]Handler), observe: observe}
}

// Bind registers h for c, replacing any previous handler.
func (b *Binder) Bind(c Control, h Handler) {
	b.handlers[c] = h
}

// Controls lists the bound controls, sorted.
func (b *Binder) Controls() []Control {
	out := make([]Control, 0, len(b.handlers))
	for c := range b.handlers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs the handler bound to ev.Control.
func (b *Binder) Dispatch(ctx context.Context, ev Event) error {
	h, ok := b.handlers[ev.Control]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownControl, ev.Control)
		b.observe(ev.Control, err)
		return err
	}
	err := h(ctx, ev)
	b.observe(ev.Control, err)
	return err
}

// CartActions mutates the cart.
type CartActions interface {
	Add(ctx context.Context, productID string, quantity int) (cart.State, error)
	Clear(ctx context.Context) (cart.State, error)
}

// CartViews re-renders the regions that depend on the cart.
type CartViews interface {
	UpdateCartCount(doc *page.Document, st cart.State)
	RenderCartItems(doc *page.Document, st cart.State) error
}

// Navigator performs page transitions.
type Navigator interface {
	GoHome()
	GoCart()
	GoDetail(productID string) bool
}

// Root is the context controls are bound against.
type Root struct {
	Document  *page.Document
	Cart      CartActions
	Views     CartViews
	Navigator Navigator
}

// Wire binds every storefront control against root.
func Wire(b *Binder, root Root) error {
	if root.Document == nil || root.Cart == nil || root.Views == nil || root.Navigator == nil {
		return errRootIncomplete
	}

	refresh := func(st cart.State) error {
		root.Views.UpdateCartCount(root.Document, st)
		return root.Views.RenderCartItems(root.Document, st)
	}
	add := func(ctx context.Context, ev Event) error {
		qty := ev.Quantity
		if qty == 0 {
			qty = 1
		}
		st, err := root.Cart.Add(ctx, ev.ProductID, qty)
		if err != nil {
			return err
		}
		return refresh(st)
	}

	b.Bind(AddToCart, add)
	b.Bind(DetailAdd, add)
	b.Bind(ViewDetail, func(_ context.Context, ev Event) error {
		root.Navigator.GoDetail(ev.ProductID)
		return nil
	})
	b.Bind(DetailBack, func(context.Context, Event) error {
		root.Navigator.GoHome()
		return nil
	})
	b.Bind(NavHome, func(context.Context, Event) error {
		root.Navigator.GoHome()
		return nil
	})
	b.Bind(NavCart, func(context.Context, Event) error {
		root.Navigator.GoCart()
		return nil
	})
	b.Bind(ClearCart, func(ctx context.Context, _ Event) error {
		st, err := root.Cart.Clear(ctx)
		if err != nil {
			return err
		}
		return refresh(st)
	})
	return nil
}
