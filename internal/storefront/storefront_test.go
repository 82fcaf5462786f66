package storefront

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"finitefield.org/mitienda-web/internal/binding"
	"finitefield.org/mitienda-web/internal/cart"
	"finitefield.org/mitienda-web/internal/catalog"
	"finitefield.org/mitienda-web/internal/i18n"
	"finitefield.org/mitienda-web/internal/observability"
	"finitefield.org/mitienda-web/internal/page"
	"finitefield.org/mitienda-web/internal/storage"
	"finitefield.org/mitienda-web/internal/view"
)

const visitor = "01HZXTESTVISITOR"

func newTestStorefront(t *testing.T, backend storage.Backend) (*Storefront, *prometheus.Registry) {
	t.Helper()

	v, err := view.New(view.Deps{Catalog: catalog.Default(), Bundle: i18n.Default()})
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	sf, err := New(Deps{View: v, Backend: backend, Metrics: observability.NewMetrics(reg)})
	require.NoError(t, err)
	return sf, reg
}

func cartLineIDs(doc *page.Document) []string {
	var ids []string
	doc.Find("#cart-items [data-product-id]").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("data-product-id", ""))
	})
	return ids
}

func TestConcreteShoppingScenario(t *testing.T) {
	t.Parallel()

	backend := storage.NewMemory()
	sf, _ := newTestStorefront(t, backend)
	ctx := context.Background()

	sess, err := sf.Open(ctx, visitor, "es", "")
	require.NoError(t, err)
	for _, ev := range []binding.Event{
		{Control: binding.AddToCart, ProductID: "1"},
		{Control: binding.AddToCart, ProductID: "1"},
		{Control: binding.AddToCart, ProductID: "2"},
		{Control: binding.AddToCart, ProductID: "2"},
		{Control: binding.AddToCart, ProductID: "2"},
	} {
		require.NoError(t, sess.Dispatch(ctx, ev))
	}
	require.Equal(t, "5", sess.Document.Text(page.RegionCartCount))

	slot, err := backend.Slot(visitor)
	require.NoError(t, err)
	raw, ok, err := slot.GetItem(ctx, cart.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"items":{"1":2,"2":3},"count":5}`, raw)

	// A fresh page load restores the cart in insertion order.
	reloaded, err := sf.Open(ctx, visitor, "es", "carrito")
	require.NoError(t, err)
	require.Equal(t, "5", reloaded.Document.Text(page.RegionCartCount))
	require.Equal(t, []string{"1", "2"}, cartLineIDs(reloaded.Document))
	require.Equal(t, []page.Section{page.SectionCart}, reloaded.Document.Visible())

	require.NoError(t, reloaded.Dispatch(ctx, binding.Event{Control: binding.ClearCart}))
	require.Equal(t, "0", reloaded.Document.Text(page.RegionCartCount))
	require.Equal(t, 1, reloaded.Document.Find("#cart-items .cart-empty").Length())
	raw, _, err = slot.GetItem(ctx, cart.StorageKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"items":{},"count":0}`, raw)
}

func TestUnknownProductsAreTolerated(t *testing.T) {
	t.Parallel()

	sf, _ := newTestStorefront(t, storage.NewMemory())
	ctx := context.Background()
	sess, err := sf.Open(ctx, visitor, "es", "")
	require.NoError(t, err)

	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.AddToCart, ProductID: "999"}))
	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.AddToCart, ProductID: "3"}))

	require.Equal(t, "2", sess.Document.Text(page.RegionCartCount), "unknown ids still count")
	require.Equal(t, []string{"3"}, cartLineIDs(sess.Document), "unknown ids are not listed")
}

func TestViewDetailUnknownProductKeepsPage(t *testing.T) {
	t.Parallel()

	sf, _ := newTestStorefront(t, storage.NewMemory())
	ctx := context.Background()
	sess, err := sf.Open(ctx, visitor, "es", "carrito")
	require.NoError(t, err)

	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.ViewDetail, ProductID: "42"}))
	require.Equal(t, []page.Section{page.SectionCart}, sess.Document.Visible())
	require.Equal(t, "carrito", sess.Fragment())

	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.ViewDetail, ProductID: "4"}))
	require.Equal(t, []page.Section{page.SectionDetail}, sess.Document.Visible())
	require.Equal(t, "product-4", sess.Fragment())
	require.Equal(t, "Gorra minimalista", sess.Document.Text(page.RegionDetailTitle))

	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.DetailAdd, ProductID: "4", Quantity: 2}))
	require.Equal(t, "2", sess.Document.Text(page.RegionCartCount))

	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.DetailBack}))
	require.Equal(t, []page.Section{page.SectionHome, page.SectionProducts}, sess.Document.Visible())
	require.Equal(t, "home", sess.Fragment())
}

func TestMalformedStoredCartRendersEmpty(t *testing.T) {
	t.Parallel()

	backend := storage.NewMemory()
	ctx := context.Background()
	slot, err := backend.Slot(visitor)
	require.NoError(t, err)
	require.NoError(t, slot.SetItem(ctx, cart.StorageKey, "{not json"))

	sf, _ := newTestStorefront(t, backend)
	sess, err := sf.Open(ctx, visitor, "es", "")
	require.NoError(t, err)
	require.Equal(t, "0", sess.Document.Text(page.RegionCartCount))
	require.Equal(t, 1, sess.Document.Find("#cart-items .cart-empty").Length())

	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.AddToCart, ProductID: "1"}))
	raw, _, err := slot.GetItem(ctx, cart.StorageKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"items":{"1":1},"count":1}`, raw)
}

type brokenBackend struct{}

func (brokenBackend) Slot(string) (storage.Storage, error) { return brokenSlot{}, nil }
func (brokenBackend) Close() error                         { return nil }

type brokenSlot struct{}

var errDiskGone = errors.New("disk gone")

func (brokenSlot) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errDiskGone
}
func (brokenSlot) SetItem(context.Context, string, string) error { return errDiskGone }
func (brokenSlot) RemoveItem(context.Context, string) error      { return errDiskGone }

func TestStorageFailureDegradesLoadAndSurfacesOnWrite(t *testing.T) {
	t.Parallel()

	sf, _ := newTestStorefront(t, brokenBackend{})
	ctx := context.Background()

	sess, err := sf.Open(ctx, visitor, "es", "")
	require.NoError(t, err)
	require.Equal(t, "0", sess.Document.Text(page.RegionCartCount))

	err = sess.Dispatch(ctx, binding.Event{Control: binding.AddToCart, ProductID: "1"})
	require.ErrorIs(t, err, errDiskGone)
}

func TestOpenRejectsUnsafeVisitor(t *testing.T) {
	t.Parallel()

	sf, _ := newTestStorefront(t, storage.NewMemory())
	_, err := sf.Open(context.Background(), "../etc", "es", "")
	require.ErrorIs(t, err, storage.ErrInvalidVisitor)
}

func TestSessionMetrics(t *testing.T) {
	t.Parallel()

	sf, reg := newTestStorefront(t, storage.NewMemory())
	ctx := context.Background()
	sess, err := sf.Open(ctx, visitor, "es", "product-2")
	require.NoError(t, err)
	require.NoError(t, sess.Dispatch(ctx, binding.Event{Control: binding.DetailAdd, ProductID: "2", Quantity: 3}))
	require.Error(t, sess.Dispatch(ctx, binding.Event{Control: "checkout"}))

	require.Equal(t, 1.0, counterValue(t, reg, "mitienda_page_loads_total"))
	require.Equal(t, 3.0, counterValue(t, reg, "mitienda_cart_units_added_total"))
	require.Equal(t, 2.0, counterValue(t, reg, "mitienda_control_dispatch_total"))
	require.Equal(t, 1.0, counterValue(t, reg, "mitienda_navigation_transitions_total"))
}

// counterValue sums every series of the named counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestRenderEmbedsFragment(t *testing.T) {
	t.Parallel()

	sf, _ := newTestStorefront(t, storage.NewMemory())
	sess, err := sf.Open(context.Background(), visitor, "en", "product-1")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sess.Render(&buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	require.Equal(t, "product-1", doc.Find("body").AttrOr("data-fragment", ""))
	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
}
