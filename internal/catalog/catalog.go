// Package catalog holds the per-session product catalog and its
// provider-backed generator.
package catalog

import (
	"encoding/json"
	"strings"

	"github.com/shopbot-labs/shopbot/internal/domain"
)

// Catalog is the ordered product list owned by one session. It is
// write-once: regenerated on session initialization, never mutated.
type Catalog struct {
	products []domain.Product
}

// New builds a catalog from products in the given order.
func New(products []domain.Product) *Catalog {
	return &Catalog{products: products}
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Names projects product names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.products))
	for i, p := range c.products {
		names[i] = p.Name
	}
	return names
}

// RenderBrowseList formats the catalog as the browse enumeration shown
// to the user: one entry per record, catalog order.
func (c *Catalog) RenderBrowseList() string {
	var b strings.Builder
	for _, p := range c.products {
		b.WriteString("<b>-")
		b.WriteString(p.Name)
		b.WriteString("</b><br>")
	}
	return b.String()
}

// FindByName returns the first product whose name equals candidate
// case-insensitively. Duplicate names are not deduplicated; first match
// wins.
func (c *Catalog) FindByName(candidate string) (*domain.Product, bool) {
	for i := range c.products {
		if strings.EqualFold(c.products[i].Name, candidate) {
			return &c.products[i], true
		}
	}
	return nil, false
}

// ContainsName reports whether candidate is a case-insensitive
// substring of any literal catalog name. An empty catalog never
// contains anything.
func (c *Catalog) ContainsName(candidate string) bool {
	if candidate == "" {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), lower) {
			return true
		}
	}
	return false
}

// wireProduct is the JSON shape the provider generates and consumes:
// stock_avail travels as a "True"/"False" string.
type wireProduct struct {
	Name        string `json:"product_name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	StockAvail  string `json:"stock_avail"`
}

// JSON renders the catalog in the wire shape used inside prompts.
func (c *Catalog) JSON() string {
	wire := make([]wireProduct, len(c.products))
	for i, p := range c.products {
		stock := "False"
		if p.StockAvailable {
			stock = "True"
		}
		wire[i] = wireProduct{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			StockAvail:  stock,
		}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		// Marshalling a slice of plain strings cannot fail; keep the
		// prompt well-formed regardless.
		return "[]"
	}
	return string(data)
}
