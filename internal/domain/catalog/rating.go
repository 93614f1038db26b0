package catalog

import "github.com/shopspring/decimal"

const (
	MinRating = 1
	MaxRating = 5
)

// AverageRating returns the mean rating to one decimal place, or "0" when
// there are no ratings.
func AverageRating(ratings []int) string {
	if len(ratings) == 0 {
		return "0"
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(ratings)))).
		StringFixed(1)
}
