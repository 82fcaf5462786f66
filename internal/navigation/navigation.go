// Package navigation maps logical storefront pages to visible sections and address
// fragments.
package navigation

import (
	"strings"

	"finitefield.org/mitienda-web/internal/page"
)

// Kind enumerates the navigation states.
type Kind int

const (
	// Home shows the landing hero and the product grid.
	Home Kind = iota
	// Detail shows one product.
	Detail
	// Cart shows the cart.
	Cart
)

func (k Kind) String() string {
	switch k {
	case Home:
		return "home"
	case Detail:
		return "detail"
	case Cart:
		return "cart"
	default:
		return "unknown"
	}
}

// Fragment tokens.
const (
	FragmentHome          = "home"
	FragmentCart          = "carrito"
	FragmentProductPrefix = "product-"
)

// State is the displayed page. ProductID is set only for Detail.
type State struct {
	Kind      Kind
	ProductID string
}

// HomeState is the landing page.
func HomeState() State { return State{Kind: Home} }

// CartState is the cart page.
func CartState() State { return State{Kind: Cart} }

// DetailState is the detail page of productID.
func DetailState(productID string) State { return State{Kind: Detail, ProductID: productID} }

// Fragment returns the canonical fragment token for s.
func (s State) Fragment() string {
	switch s.Kind {
	case Detail:
		return FragmentProductPrefix + s.ProductID
	case Cart:
		return FragmentCart
	default:
		return FragmentHome
	}
}

// visibleSections is the only place that decides what each state shows. Sections not
// listed are hidden, so the contact section is hidden in every state.
var visibleSections = map[Kind][]page.Section{
	Home:   {page.SectionHome, page.SectionProducts},
	Detail: {page.SectionDetail},
	Cart:   {page.SectionCart},
}

// scrollTargets is where the viewport lands after a transition.
var scrollTargets = map[Kind]string{
	Home:   page.ScrollTop,
	Detail: string(page.SectionDetail),
	Cart:   string(page.SectionCart),
}

// VisibleSections returns the sections shown for k.
func VisibleSections(k Kind) []page.Section {
	out := make([]page.Section, len(visibleSections[k]))
	copy(out, visibleSections[k])
	return out
}

// Apply shows exactly the sections of s, marks the matching navbar link and sets the
// scroll target.
func Apply(doc *page.Document, s State) {
	shown := make(map[page.Section]bool, len(page.AllSections))
	for _, sec := range visibleSections[s.Kind] {
		shown[sec] = true
	}
	for _, sec := range page.AllSections {
		doc.SetHidden(sec, !shown[sec])
	}
	doc.MarkActiveNav(s.Fragment())
	doc.ScrollTo(scrollTargets[s.Kind])
}

// Route is the action an address fragment asks for on load.
type Route struct {
	// None is true for an empty fragment: the initial markup stands.
	None  bool
	State State
}

// ParseFragment decodes an address fragment. "product-<id>" takes the text between the
// first and second '-' as the id; "carrito" is the cart; any other non-empty value is home.
func ParseFragment(fragment string) Route {
	f := strings.TrimPrefix(fragment, "#")
	if f == "" {
		return Route{None: true}
	}
	if strings.HasPrefix(f, FragmentProductPrefix) {
		id := strings.SplitN(f, "-", 3)[1]
		return Route{State: DetailState(id)}
	}
	if f == FragmentCart {
		return Route{State: CartState()}
	}
	return Route{State: HomeState()}
}
