package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// RecentLimit caps the recently viewed list.
const RecentLimit = 4

// Options are the selector values offered by the browse filters.
type Options struct {
	Categories []Category
	Companies  []string
}

// FilterOptions returns "All" followed by the distinct categories and
// non-empty companies of products, in first-appearance order.
func FilterOptions(products []Product) Options {
	opts := Options{
		Categories: []Category{CategoryAll},
		Companies:  []string{AllCompanies},
	}
	seenCat := make(map[Category]struct{})
	seenCo := make(map[string]struct{})
	for _, p := range products {
		if _, ok := seenCat[p.Category]; !ok && p.Category != "" {
			seenCat[p.Category] = struct{}{}
			opts.Categories = append(opts.Categories, p.Category)
		}
		if _, ok := seenCo[p.Company]; !ok && p.Company != "" {
			seenCo[p.Company] = struct{}{}
			opts.Companies = append(opts.Companies, p.Company)
		}
	}
	return opts
}

// Lookup resolves a scanned code: the decimal id or the product name,
// compared case-insensitively.
func Lookup(products []Product, code string) (Product, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Product{}, false
	}
	for _, p := range products {
		if strconv.FormatInt(p.ID, 10) == code || strings.EqualFold(p.Name, code) {
			return p, true
		}
	}
	return Product{}, false
}

// ShareText is the message offered by the share button. The price is left
// out when priceVisible is false.
func ShareText(p Product, priceVisible bool) string {
	company := p.Company
	if company == "" {
		company = "Kastkar"
	}
	if !priceVisible {
		return fmt.Sprintf("Check out %s by %s at Kastkar Krushi Seva Kendra.", p.Name, company)
	}
	return fmt.Sprintf("Check out %s by %s at Kastkar Krushi Seva Kendra for ₹%s.", p.Name, company, p.Price.String())
}

// ErrInvalidTarget is returned for a price alert target that is not a
// positive whole number.
var ErrInvalidTarget = errors.New("target price must be a positive whole number")

// PriceAlert is the outcome of a price alert request.
type PriceAlert struct {
	// Satisfied is true when the current price already meets the target.
	Satisfied bool
	Message   string
}

// NewPriceAlert evaluates a target price against p. Fractional targets are
// truncated. When priceVisible is false the target is never compared with
// the hidden price, so the alert is always left pending.
func NewPriceAlert(p Product, rawTarget string, priceVisible bool) (PriceAlert, error) {
	target, err := decimal.NewFromString(strings.TrimSpace(rawTarget))
	if err != nil {
		return PriceAlert{}, ErrInvalidTarget
	}
	target = target.Truncate(0)
	if !target.IsPositive() {
		return PriceAlert{}, ErrInvalidTarget
	}
	if priceVisible && target.GreaterThanOrEqual(p.Price) {
		return PriceAlert{
			Satisfied: true,
			Message:   fmt.Sprintf("Good news! %s is already available at ₹%s", p.Name, p.Price.String()),
		}, nil
	}
	return PriceAlert{
		Message: fmt.Sprintf("Alert set for %s at ₹%s. We will notify you!", p.Name, target.String()),
	}, nil
}

// PriceVisible reports whether p's price is shown. Owners always see it;
// guests lose pesticide prices when the owner hides them.
func PriceVisible(p Product, owner, showPesticidePrices bool) bool {
	if owner || showPesticidePrices {
		return true
	}
	return p.Category != CategoryPesticides
}

// PushRecent moves id to the front of ids, dropping duplicates and keeping
// at most RecentLimit entries.
func PushRecent(ids []int64, id int64) []int64 {
	out := make([]int64, 0, RecentLimit)
	out = append(out, id)
	for _, v := range ids {
		if len(out) == RecentLimit {
			break
		}
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ResolveRecent maps ids to products, skipping ids no longer in the catalog.
func ResolveRecent(ids []int64, products []Product) []Product {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
