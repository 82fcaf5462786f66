package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	// ErrEmptyCatalog is returned when a catalog source lists no products.
	ErrEmptyCatalog = errors.New("catalog: no products")
	// ErrInvalidProduct is returned when a product record violates the catalog invariants.
	ErrInvalidProduct = errors.New("catalog: invalid product")
)

// Product is an immutable catalog entry.
type Product struct {
	ID          int
	Title       string
	Price       int64 // minor units
	ImageURL    string
	Description string
}

// Catalog is the fixed, ordered product list. It is safe for concurrent reads.
type Catalog struct {
	products []Product
	byID     map[int]int
}

type catalogFile struct {
	Products []productRecord `yaml:"products"`
}

type productRecord struct {
	ID          int    `yaml:"id"`
	Title       string `yaml:"title"`
	Price       int64  `yaml:"price"`
	Image       string `yaml:"image"`
	Description string `yaml:"description"`
}

// Default returns the embedded storefront catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML catalog document and validates it.
func Parse(raw []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	products := make([]Product, 0, len(doc.Products))
	for _, rec := range doc.Products {
		products = append(products, Product{
			ID:          rec.ID,
			Title:       strings.TrimSpace(rec.Title),
			Price:       rec.Price,
			ImageURL:    strings.TrimSpace(rec.Image),
			Description: strings.TrimSpace(rec.Description),
		})
	}
	return New(products)
}

// New builds a catalog from products, preserving their order.
func New(products []Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for i, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("%w: id %d must be positive", ErrInvalidProduct, p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("%w: product %d has negative price", ErrInvalidProduct, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidProduct, p.ID)
		}
		c.products[i] = p
		c.byID[p.ID] = i
	}
	return c, nil
}

// Products returns a copy of the products in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len reports the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Find looks up a product by id.
func (c *Catalog) Find(id int) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Lookup resolves a product from a textual id such as a cart key or a data-id attribute.
// Anything that is not a base-10 integer resolves to nothing.
func (c *Catalog) Lookup(rawID string) (Product, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil {
		return Product{}, false
	}
	return c.Find(id)
}
