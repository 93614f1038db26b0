package catalog

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering of a display list.
type SortKey string

const (
	SortName         SortKey = "name"
	SortPriceLow     SortKey = "price-low"
	SortPriceHigh    SortKey = "price-high"
	SortAvailability SortKey = "availability"
	SortCompany      SortKey = "company"
)

// ParseSortKey maps s to a SortKey. Unknown or empty values sort by name.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortPriceLow, SortPriceHigh, SortAvailability, SortCompany:
		return k
	default:
		return SortName
	}
}

// AllCompanies is the company selector that matches every product.
const AllCompanies = "All"

// Criteria holds the browse controls.
type Criteria struct {
	Search   string
	Category Category
	Company  string
	Sort     SortKey
}

// Apply derives the display list: search, then category and company
// filters, then a stable sort. The input is not modified.
func Apply(products []Product, c Criteria) []Product {
	query := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if query != "" && !matchesSearch(p, query) {
			continue
		}
		if c.Category != "" && c.Category != CategoryAll && p.Category != c.Category {
			continue
		}
		if c.Company != "" && c.Company != AllCompanies && p.Company != c.Company {
			continue
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, comparator(c.Sort))
	return out
}

func matchesSearch(p Product, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		(p.Company != "" && strings.Contains(strings.ToLower(p.Company), query)) ||
		strconv.FormatInt(p.ID, 10) == query
}

func comparator(key SortKey) func(a, b Product) int {
	switch key {
	case SortPriceLow:
		return func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceHigh:
		return func(a, b Product) int { return b.Price.Cmp(a.Price) }
	case SortAvailability:
		return func(a, b Product) int {
			switch {
			case a.InStock() == b.InStock():
				return 0
			case a.InStock():
				return -1
			default:
				return 1
			}
		}
	case SortCompany:
		col := collate.New(language.English)
		return func(a, b Product) int { return col.CompareString(a.Company, b.Company) }
	default:
		col := collate.New(language.English)
		return func(a, b Product) int { return col.CompareString(a.Name, b.Name) }
	}
}
