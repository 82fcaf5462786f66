// Package view projects catalog and cart state into the storefront document.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"finitefield.org/mitienda-web/internal/cart"
	"finitefield.org/mitienda-web/internal/catalog"
	"finitefield.org/mitienda-web/internal/format"
	"finitefield.org/mitienda-web/internal/i18n"
	"finitefield.org/mitienda-web/internal/nav"
	"finitefield.org/mitienda-web/internal/navigation"
	"finitefield.org/mitienda-web/internal/page"
	"finitefield.org/mitienda-web/internal/seo"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the stylesheet and other files served under /assets/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("view: static assets: %v", err))
	}
	return sub
}

// priceCurrency is the ISO code of catalog prices.
const priceCurrency = "USD"

// summaryLength bounds the description shown on product cards.
const summaryLength = 90

var (
	errCatalogRequired = errors.New("view: catalog is required")
	errBundleRequired  = errors.New("view: i18n bundle is required")
)

// Deps wires the view.
type Deps struct {
	Catalog *catalog.Catalog
	Bundle  *i18n.Bundle
}

// View holds the parsed templates and content pipeline shared by all renderers.
type View struct {
	catalog  *catalog.Catalog
	bundle   *i18n.Bundle
	tmpl     *template.Template
	markdown goldmark.Markdown
	ugc      *bluemonday.Policy
	strict   *bluemonday.Policy
}

// New parses the embedded templates.
func New(deps Deps) (*View, error) {
	if deps.Catalog == nil {
		return nil, errCatalogRequired
	}
	if deps.Bundle == nil {
		return nil, errBundleRequired
	}
	funcMap := template.FuncMap{
		"t": deps.Bundle.T,
	}
	tmpl, err := template.New("_root").Funcs(funcMap).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &View{
		catalog:  deps.Catalog,
		bundle:   deps.Bundle,
		tmpl:     tmpl,
		markdown: goldmark.New(),
		ugc:      newDescriptionPolicy(),
		strict:   bluemonday.StrictPolicy(),
	}, nil
}

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("p", "span")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Renderer returns a renderer for lang.
func (v *View) Renderer(lang string) *Renderer {
	if !v.bundle.IsSupported(lang) {
		lang = v.bundle.Fallback()
	}
	return &Renderer{view: v, lang: lang}
}

// Renderer renders one language. Every method rebuilds its region from scratch, so
// repeated calls with the same state produce the same markup.
type Renderer struct {
	view *View
	lang string
}

// Lang returns the renderer's language.
func (r *Renderer) Lang() string { return r.lang }

type shellData struct {
	Lang string
	Nav  []nav.RenderedItem
}

// NewDocument renders the page shell in its initial state: home, products and contact
// visible, every dynamic region empty.
func (r *Renderer) NewDocument() (*page.Document, error) {
	var buf bytes.Buffer
	data := shellData{Lang: r.lang, Nav: nav.Build("")}
	if err := r.view.tmpl.ExecuteTemplate(&buf, "shell", data); err != nil {
		return nil, fmt.Errorf("view: render shell: %w", err)
	}
	doc, err := page.Parse(&buf)
	if err != nil {
		return nil, err
	}
	doc.SetScriptText(page.RegionSiteJSONLD, seo.JSON(seo.Organization(r.view.bundle.T(r.lang, "brand.name"), "/")))
	return doc, nil
}

type productCard struct {
	Lang     string
	ID       int
	Title    string
	Price    string
	ImageURL string
	Summary  string
}

// RenderProducts fills the product grid with one card per catalog entry in catalog order.
func (r *Renderer) RenderProducts(doc *page.Document) error {
	var buf bytes.Buffer
	for _, p := range r.view.catalog.Products() {
		card := productCard{
			Lang:     r.lang,
			ID:       p.ID,
			Title:    p.Title,
			Price:    format.Price(p.Price),
			ImageURL: p.ImageURL,
			Summary:  format.Truncate(r.view.plainText(p.Description), summaryLength),
		}
		if err := r.view.tmpl.ExecuteTemplate(&buf, "product_card", card); err != nil {
			return fmt.Errorf("view: render product %d: %w", p.ID, err)
		}
	}
	doc.SetHTML(page.RegionProductsGrid, buf.String())
	return nil
}

type cartLine struct {
	ID       int
	Title    string
	Price    string
	Quantity int
}

// RenderCartItems lists the cart lines in cart order. Lines whose product is not in the
// catalog are left out; an empty cart shows a single notice.
func (r *Renderer) RenderCartItems(doc *page.Document, st cart.State) error {
	if !doc.Has(page.RegionCartItems) {
		return nil
	}
	var buf bytes.Buffer
	if st.IsEmpty() {
		if err := r.view.tmpl.ExecuteTemplate(&buf, "cart_empty", shellData{Lang: r.lang}); err != nil {
			return fmt.Errorf("view: render empty cart: %w", err)
		}
		doc.SetHTML(page.RegionCartItems, buf.String())
		return nil
	}
	for _, it := range st.Items() {
		p, ok := r.view.catalog.Lookup(it.ProductID)
		if !ok {
			continue
		}
		line := cartLine{ID: p.ID, Title: p.Title, Price: format.Price(p.Price), Quantity: it.Quantity}
		if err := r.view.tmpl.ExecuteTemplate(&buf, "cart_item", line); err != nil {
			return fmt.Errorf("view: render cart line %s: %w", it.ProductID, err)
		}
	}
	doc.SetHTML(page.RegionCartItems, buf.String())
	return nil
}

// UpdateCartCount writes the cart's item count to the navbar badge.
func (r *Renderer) UpdateCartCount(doc *page.Document, st cart.State) {
	doc.SetText(page.RegionCartCount, strconv.Itoa(st.Count()))
}

// ShowProductDetail fills the detail panel for productID and shows only that panel.
// It does nothing and returns false when the id does not resolve to a product.
func (r *Renderer) ShowProductDetail(doc *page.Document, productID string) bool {
	p, ok := r.view.catalog.Lookup(productID)
	if !ok {
		return false
	}
	id := strconv.Itoa(p.ID)
	doc.SetAttr(page.RegionDetailImage, "src", p.ImageURL)
	doc.SetAttr(page.RegionDetailImage, "alt", p.Title)
	doc.SetText(page.RegionDetailTitle, p.Title)
	doc.SetText(page.RegionDetailPrice, format.Price(p.Price))
	doc.SetHTML(page.RegionDetailDesc, r.view.descriptionHTML(p.Description))
	doc.SetAttr(page.RegionDetailAdd, "data-id", id)
	doc.SetAttr(page.RegionDetailAddID, "value", id)
	state := navigation.DetailState(id)
	doc.SetScriptText(page.RegionDetailJSONLD, seo.JSON(seo.Product(
		p.Title,
		r.view.plainText(p.Description),
		nav.Href(state.Fragment()),
		p.ImageURL,
		id,
		seo.Offer{Price: format.Decimal(p.Price), Currency: priceCurrency},
	)))
	navigation.Apply(doc, state)
	return true
}

// descriptionHTML renders markdown and sanitizes the result.
func (v *View) descriptionHTML(src string) string {
	var buf bytes.Buffer
	if err := v.markdown.Convert([]byte(src), &buf); err != nil {
		return html.EscapeString(src)
	}
	return strings.TrimSpace(v.ugc.Sanitize(buf.String()))
}

// plainText renders markdown and strips every tag, leaving readable text.
func (v *View) plainText(src string) string {
	var buf bytes.Buffer
	if err := v.markdown.Convert([]byte(src), &buf); err != nil {
		return src
	}
	return strings.Join(strings.Fields(html.UnescapeString(v.strict.Sanitize(buf.String()))), " ")
}
