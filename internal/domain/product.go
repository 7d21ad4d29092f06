// Package domain contains core domain types for the ShopBot application.
package domain

// Product is a single entry in a session's generated catalog.
// Catalogs are regenerated on every session initialization and never
// mutated afterwards. Duplicate names are not rejected; lookups resolve
// to the first match in catalog order.
type Product struct {
	Name           string
	Description    string
	Price          string
	StockAvailable bool
}

// Attributes holds the provider-extracted fields for a resolved product.
// Stock is kept as the raw string the provider (or the catalog fallback)
// produced: anything other than "true" renders as out of stock.
type Attributes struct {
	Price       string
	Description string
	Stock       string
}
