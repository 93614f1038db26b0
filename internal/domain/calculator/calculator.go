// Package calculator estimates seed and fertilizer needs for a field.
package calculator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kastkar/krushi/internal/domain/catalog"
)

// MaxAcres bounds a single estimate.
var MaxAcres = decimal.NewFromInt(10000)

// Crop is one row of the recommendation table.
type Crop struct {
	Key  string
	Name string

	seed       func(acres decimal.Decimal) string
	fertilizer func(acres decimal.Decimal) string
}

// Estimate is the recommendation for one field.
type Estimate struct {
	Crop       string
	Acres      decimal.Decimal
	Seed       string
	Fertilizer string
}

var (
	half = decimal.NewFromFloat(0.5)

	crops = []Crop{
		{
			Key:  "cotton",
			Name: "Cotton",
			seed: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s Packets (Bt Cotton)", ceil(a.Mul(decimal.NewFromInt(2))))
			},
			fertilizer: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s Bag DAP + %s Bag Potash", ceil(a), ceil(a.Mul(half)))
			},
		},
		{
			Key:  "soybean",
			Name: "Soybean",
			seed: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s - %s kg", times(a, 25), times(a, 30))
			},
			fertilizer: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s Bag DAP + %s kg Sulphur", ceil(a), ceil(a.Mul(decimal.NewFromInt(10))))
			},
		},
		{
			Key:  "wheat",
			Name: "Wheat",
			seed: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s kg", times(a, 40))
			},
			fertilizer: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s Bag NPK 12:32:16 + %s Bag Urea", ceil(a), ceil(a.Mul(half)))
			},
		},
		{
			Key:  "gram",
			Name: "Gram (Chana)",
			seed: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s kg", times(a, 25))
			},
			fertilizer: func(a decimal.Decimal) string {
				return fmt.Sprintf("%s Bag DAP", ceil(a))
			},
		},
	}
)

func ceil(d decimal.Decimal) string { return d.Ceil().String() }

func times(a decimal.Decimal, n int64) string { return a.Mul(decimal.NewFromInt(n)).String() }

// Crops lists the crops an estimate can be made for, in display order.
func Crops() []Crop {
	return append([]Crop(nil), crops...)
}

// Lookup finds a crop by key or display name, ignoring case.
func Lookup(name string) (Crop, bool) {
	name = strings.TrimSpace(name)
	for _, c := range crops {
		if strings.EqualFold(name, c.Key) || strings.EqualFold(name, c.Name) {
			return c, true
		}
	}
	return Crop{}, false
}

// Calculate returns the recommendation for acres of crop. Acres may be
// fractional but must be positive.
func Calculate(crop string, acres decimal.Decimal) (Estimate, error) {
	c, ok := Lookup(crop)
	if !ok {
		return Estimate{}, &catalog.ValidationError{Field: "crop", Reason: "is not supported"}
	}
	if !acres.IsPositive() {
		return Estimate{}, &catalog.ValidationError{Field: "acres", Reason: "must be greater than 0"}
	}
	if acres.GreaterThan(MaxAcres) {
		return Estimate{}, &catalog.ValidationError{Field: "acres", Reason: "must be at most " + MaxAcres.String()}
	}
	return Estimate{
		Crop:       c.Name,
		Acres:      acres,
		Seed:       c.seed(acres),
		Fertilizer: c.fertilizer(acres),
	}, nil
}

// ParseAcres reads a field size such as "2.5".
func ParseAcres(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, &catalog.ValidationError{Field: "acres", Reason: "must be a number"}
	}
	return d, nil
}
