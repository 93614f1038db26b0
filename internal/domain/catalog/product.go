// Package catalog holds the shop's product list and the pure functions that
// derive display lists, stock badges and daily picks from it.
package catalog

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultQuantity is the stock assigned to a new product when none is given.
const DefaultQuantity = 10

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("product not found")

// Category is an open product category. The well-known values are listed
// below; any other non-empty value set by the owner is accepted as is.
type Category string

const (
	// CategoryAll is the filter selector that matches every category.
	CategoryAll         Category = "All"
	CategorySeeds       Category = "Seeds"
	CategoryFertilizers Category = "Fertilizers"
	CategoryPesticides  Category = "Pesticides"
	CategoryEquipment   Category = "Equipment"
	CategorySupplements Category = "Supplements"
	CategoryOther       Category = "Other"
)

// KnownCategories lists the categories offered by the product form.
var KnownCategories = []Category{
	CategorySeeds,
	CategoryFertilizers,
	CategoryPesticides,
	CategoryEquipment,
	CategorySupplements,
	CategoryOther,
}

// ParseCategory trims s and returns it as a Category. An empty value yields
// fallback.
func ParseCategory(s string, fallback Category) Category {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return Category(s)
}

// Known reports whether c is one of KnownCategories.
func (c Category) Known() bool {
	for _, k := range KnownCategories {
		if c == k {
			return true
		}
	}
	return false
}

// Product is a single catalog entry. Availability is derived from Quantity
// and never stored.
type Product struct {
	ID           int64
	Name         string
	Category     Category
	Price        decimal.Decimal
	Company      string
	Quantity     int
	Image        string
	Images       []string
	Description  string
	SuitableSoil string
	Ratings      []int
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Quantity > 0
}

// Clone returns a copy of p that shares no slices with it.
func (p Product) Clone() Product {
	c := p
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	if p.Ratings != nil {
		c.Ratings = append([]int(nil), p.Ratings...)
	}
	return c
}

// ValidationError reports a rejected field value. The store is left unchanged
// whenever one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates no product with ProductID exists.
type NotFoundError struct {
	ProductID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if p.Quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	for _, r := range p.Ratings {
		if r < MinRating || r > MaxRating {
			return &ValidationError{Field: "ratings", Reason: fmt.Sprintf("value %d outside %d..%d", r, MinRating, MaxRating)}
		}
	}
	return nil
}
