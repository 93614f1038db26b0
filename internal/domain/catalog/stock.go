package catalog

import "fmt"

const (
	// LowStockThreshold is the quantity below which an item shows Low Stock.
	LowStockThreshold = 10
	// StockBarCapacity is the quantity that fills the stock bar.
	StockBarCapacity = 20
)

// StockLevel is the availability badge of a product.
type StockLevel string

const (
	StockSoldOut   StockLevel = "sold-out"
	StockLow       StockLevel = "low"
	StockAvailable StockLevel = "available"
)

// StockStatus is the derived stock indicator for one product.
type StockStatus struct {
	Level StockLevel
	Label string
	// Fill is the stock bar fraction in [0, 1].
	Fill float64
}

// ClassifyStock returns the stock indicator for quantity.
func ClassifyStock(quantity int) StockStatus {
	switch {
	case quantity <= 0:
		return StockStatus{Level: StockSoldOut, Label: "Sold Out", Fill: 0}
	case quantity < LowStockThreshold:
		return StockStatus{Level: StockLow, Label: fmt.Sprintf("%d left", quantity), Fill: fill(quantity)}
	default:
		return StockStatus{Level: StockAvailable, Label: "Available", Fill: fill(quantity)}
	}
}

func fill(quantity int) float64 {
	return min(float64(quantity)/StockBarCapacity, 1)
}
