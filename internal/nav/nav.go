package nav

import "net/url"

// Item represents a top-level navigation entry.
type Item struct {
	ID       string // stable element id, e.g. "link-carrito"
	Control  string // control name dispatched when the entry is activated
	Fragment string // fragment the entry navigates to
	LabelKey string // i18n key, e.g. "nav.cart"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	ID       string
	Control  string
	Href     string
	Fragment string
	LabelKey string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{ID: "link-home", Control: "nav-home", Fragment: "home", LabelKey: "nav.home"},
	{ID: "link-carrito", Control: "nav-cart", Fragment: "carrito", LabelKey: "nav.cart"},
}

// Href builds the address of a fragment. The fragment is repeated as a query parameter
// because servers never see the part after '#'.
func Href(fragment string) string {
	if fragment == "" {
		return "/"
	}
	u := url.URL{Path: "/", RawQuery: url.Values{"fragment": {fragment}}.Encode(), Fragment: fragment}
	return u.String()
}

// Build renders navigation items with active state given the current fragment.
func Build(currentFragment string) []RenderedItem {
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			ID:       it.ID,
			Control:  it.Control,
			Href:     Href(it.Fragment),
			Fragment: it.Fragment,
			LabelKey: it.LabelKey,
			Active:   it.Fragment == currentFragment,
		})
	}
	return items
}
