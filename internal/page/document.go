// Package page holds the storefront document: an HTML tree with stable element ids that
// renderers fill and navigation shows or hides.
package page

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HiddenClass marks a section as not visible.
const HiddenClass = "visually-hidden"

// Section names a top-level region that navigation toggles.
type Section string

// Sections of the storefront shell.
const (
	SectionHome     Section = "home"
	SectionProducts Section = "productos"
	SectionDetail   Section = "product-detail"
	SectionCart     Section = "carrito"
	SectionContact  Section = "contacto"
)

// AllSections lists every toggled section in document order.
var AllSections = []Section{SectionHome, SectionProducts, SectionDetail, SectionCart, SectionContact}

// Region ids filled by the renderer.
const (
	RegionProductsGrid = "products-grid"
	RegionCartItems    = "cart-items"
	RegionCartCount    = "cart-count"
	RegionDetailImage  = "detail-img"
	RegionDetailTitle  = "detail-title"
	RegionDetailPrice  = "detail-price"
	RegionDetailDesc   = "detail-desc"
	RegionDetailAdd    = "detail-add"
	RegionDetailAddID  = "detail-add-id"
	RegionDetailJSONLD = "detail-jsonld"
	RegionSiteJSONLD   = "site-jsonld"
)

// ScrollTop is the scroll target meaning "top of the page".
const ScrollTop = "top"

// Document is a parsed storefront page. It is not safe for concurrent use; each page
// session owns its own document.
type Document struct {
	doc      *goquery.Document
	fragment string
	scroll   string
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("page: parse: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Find exposes the underlying selection for callers that need richer queries.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

func (d *Document) byID(id string) *goquery.Selection {
	return d.doc.Find("#" + id)
}

// Has reports whether an element with id exists.
func (d *Document) Has(id string) bool { return d.byID(id).Length() > 0 }

// SetHTML replaces the children of element id with markup. It reports whether the
// element exists.
func (d *Document) SetHTML(id, markup string) bool {
	sel := d.byID(id)
	if sel.Length() == 0 {
		return false
	}
	sel.SetHtml(markup)
	return true
}

// HTML returns the inner markup of element id.
func (d *Document) HTML(id string) string {
	out, _ := d.byID(id).Html()
	return out
}

// SetText replaces the children of element id with escaped text.
func (d *Document) SetText(id, text string) bool {
	sel := d.byID(id)
	if sel.Length() == 0 {
		return false
	}
	sel.SetText(text)
	return true
}

// SetScriptText replaces the content of script element id with raw text. Unlike SetText
// the text is not entity-escaped, since script content is never decoded.
func (d *Document) SetScriptText(id, text string) bool {
	sel := d.byID(id)
	if sel.Length() == 0 {
		return false
	}
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return true
}

// Text returns the text content of element id.
func (d *Document) Text(id string) string {
	return d.byID(id).Text()
}

// SetAttr sets attribute name on element id.
func (d *Document) SetAttr(id, name, value string) bool {
	sel := d.byID(id)
	if sel.Length() == 0 {
		return false
	}
	sel.SetAttr(name, value)
	return true
}

// Attr returns attribute name of element id.
func (d *Document) Attr(id, name string) (string, bool) {
	return d.byID(id).Attr(name)
}

// SetHidden toggles the hidden class on a section.
func (d *Document) SetHidden(s Section, hidden bool) {
	sel := d.byID(string(s))
	if hidden {
		sel.AddClass(HiddenClass)
	} else {
		sel.RemoveClass(HiddenClass)
	}
}

// Hidden reports whether a section carries the hidden class. Missing sections count as hidden.
func (d *Document) Hidden(s Section) bool {
	sel := d.byID(string(s))
	return sel.Length() == 0 || sel.HasClass(HiddenClass)
}

// Visible returns the sections currently shown, in document order.
func (d *Document) Visible() []Section {
	var out []Section
	for _, s := range AllSections {
		if !d.Hidden(s) {
			out = append(out, s)
		}
	}
	return out
}

// MarkActiveNav flags the navigation links that point at fragment and clears the rest.
func (d *Document) MarkActiveNav(fragment string) {
	d.doc.Find("[data-nav-fragment]").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("data-nav-fragment", "") == fragment {
			s.AddClass("active")
		} else {
			s.RemoveClass("active")
		}
	})
}

// Fragment is the current address fragment without the leading '#'.
func (d *Document) Fragment() string { return d.fragment }

// SetFragment updates the address fragment.
func (d *Document) SetFragment(fragment string) {
	d.fragment = strings.TrimPrefix(fragment, "#")
}

// ScrollTarget is the element id the viewport should scroll to, ScrollTop, or empty.
func (d *Document) ScrollTarget() string { return d.scroll }

// ScrollTo records the scroll target for the host.
func (d *Document) ScrollTo(target string) { d.scroll = target }

// AppendToForms appends markup to every form whose method is POST. Hosts use it to carry
// request-scoped fields such as CSRF tokens.
func (d *Document) AppendToForms(markup string) {
	d.doc.Find("form").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(s.AttrOr("method", ""), "post")
	}).AppendHtml(markup)
}

// Render writes the full document. The fragment and scroll target are exposed on <body>
// as data attributes so hosts and clients can restore position.
func (d *Document) Render(w io.Writer) error {
	body := d.doc.Find("body")
	if d.fragment != "" {
		body.SetAttr("data-fragment", d.fragment)
	} else {
		body.RemoveAttr("data-fragment")
	}
	if d.scroll != "" {
		body.SetAttr("data-scroll-target", d.scroll)
	} else {
		body.RemoveAttr("data-scroll-target")
	}
	for _, n := range d.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("page: render: %w", err)
		}
	}
	return nil
}

// String renders the document to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
