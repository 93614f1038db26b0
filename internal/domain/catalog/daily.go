package catalog

import "time"

// ProductOfTheDay picks products[dayOfYear mod len] where dayOfYear is the
// 1-based ordinal day of day in its own location. It returns false for an
// empty list.
func ProductOfTheDay(day time.Time, products []Product) (Product, bool) {
	if len(products) == 0 {
		return Product{}, false
	}
	return products[day.YearDay()%len(products)], true
}
