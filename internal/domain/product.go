package domain

import (
	"strings"
	"time"
)

// lowStockThreshold marks products that need restocking. Quantity below this
// value is flagged; exactly at the threshold is normal stock.
const lowStockThreshold = 5

// CategoryAll is the sentinel category meaning "no category filter".
const CategoryAll = "Todos"

// Categories is the fixed set of product categories the storefront offers.
var Categories = []string{"Bolos", "Cupcakes", "Tortas", "Doces", "Pães"}

// Product is a storefront catalog item. Both the REST backend and the document
// store are authoritative sources; whichever served the data last wins.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LowStock reports whether the product should be flagged as running out.
// Pure display derivation, never stored.
func (p Product) LowStock() bool {
	return p.Quantity < lowStockThreshold
}

// MatchesFilter applies the storefront's conjunctive filter: the product must
// belong to the selected category (or the category must be the "all" sentinel)
// AND contain the search substring, case-insensitively, in its name.
func (p Product) MatchesFilter(category, search string) bool {
	if category != "" && category != CategoryAll && p.Category != category {
		return false
	}
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(search))
}

// Normalize applies read-side defaults for partial documents: negative or
// missing numeric fields display as zero. Write paths never pass through here;
// they require explicit validated input.
func (p *Product) Normalize() {
	if p.Price < 0 {
		p.Price = 0
	}
	if p.Quantity < 0 {
		p.Quantity = 0
	}
}

// FilterProducts returns the products matching the conjunctive filter,
// preserving input order.
func FilterProducts(products []Product, category, search string) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.MatchesFilter(category, search) {
			out = append(out, p)
		}
	}
	return out
}

// NewProductInput is the validated payload for product creation.
type NewProductInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
}

// Validate checks the creation payload before any network call.
func (in *NewProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ErrValidation{Field: "name", Message: "nome é obrigatório"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &ErrValidation{Field: "description", Message: "descrição é obrigatória"}
	}
	if in.Category == "" {
		return &ErrValidation{Field: "category", Message: "categoria é obrigatória"}
	}
	if in.Price <= 0 {
		return &ErrValidation{Field: "price", Message: "preço deve ser maior que zero"}
	}
	if in.Quantity < 0 {
		return &ErrValidation{Field: "quantity", Message: "quantidade não pode ser negativa"}
	}
	return nil
}

// ValidateQuantity checks a quantity update before any network call.
func ValidateQuantity(quantity int) error {
	if quantity < 0 {
		return &ErrValidation{Field: "quantity", Message: "quantidade não pode ser negativa"}
	}
	return nil
}
