package shop

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kastkar/krushi/internal/domain/cart"
	"github.com/kastkar/krushi/internal/domain/catalog"
)

// ErrNoSnapshot is returned by a Repository when nothing has been stored
// under a key yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Settings are the owner's display toggles.
type Settings struct {
	ShowPesticidePrices bool
}

// DefaultSettings is used when no settings have been stored.
func DefaultSettings() Settings {
	return Settings{ShowPesticidePrices: true}
}

// Repository persists shop state. Every Save receives the full value.
type Repository interface {
	LoadProducts(ctx context.Context) ([]catalog.Product, error)
	SaveProducts(ctx context.Context, products []catalog.Product) error
	LoadRecent(ctx context.Context, session string) ([]int64, error)
	SaveRecent(ctx context.Context, session string, ids []int64) error
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// Order is a serialized checkout ready for hand-off.
type Order struct {
	Customer cart.Customer
	Items    []cart.Item
	Total    decimal.Decimal
	Message  string
	// Link is the chat deep link carrying Message, set by the Dispatcher.
	Link string
}

// Dispatcher delivers an order to the shop.
type Dispatcher interface {
	Dispatch(ctx context.Context, o *Order) error
}

// Listing is a product with everything a product card displays.
type Listing struct {
	Product      catalog.Product
	Stock        catalog.StockStatus
	Rating       string
	PriceVisible bool
}

// CartView is the derived cart state.
type CartView struct {
	Items []cart.Item
	Total decimal.Decimal
	Count int
}
