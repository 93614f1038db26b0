// Package market keeps the mandi rate board the owner maintains on the home
// page.
package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/kastkar/krushi/internal/domain/catalog"
)

// DateLayout renders the default date label of a new rate, e.g. "07 Mar".
const DateLayout = "02 Jan"

const defaultTrend = "0.0%"

var (
	// ErrNoRates is returned by a Repository when no board has been stored.
	ErrNoRates = errors.New("no market rates stored")
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("market rate not found")
)

// NotFoundError names a missing rate.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("market rate %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Direction is how a trend label is displayed.
type Direction string

const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionFlat     Direction = "flat"
	DirectionForecast Direction = "forecast"
)

// Rate is one board entry. Price and Trend are free text as quoted at the
// mandi, e.g. "₹6,850 - ₹7,200" and "+1.0%".
type Rate struct {
	ID     string
	Date   string `json:"date" validate:"max=20"`
	Crop   string `json:"crop" validate:"required,max=100"`
	Market string `json:"market" validate:"required,max=100"`
	Price  string `json:"price" validate:"required,max=50"`
	Trend  string `json:"trend" validate:"max=20"`
}

// Direction classifies the trend label.
func (r Rate) Direction() Direction {
	switch {
	case r.Trend == "Forecast":
		return DirectionForecast
	case strings.HasPrefix(r.Trend, "+"):
		return DirectionUp
	case strings.HasPrefix(r.Trend, "-"):
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Repository persists the board, newest first.
type Repository interface {
	LoadMarketRates(ctx context.Context) ([]Rate, error)
	SaveMarketRates(ctx context.Context, rates []Rate) error
}

// Board is the list of rates shown to visitors. Only the owner changes it.
type Board struct {
	repo Repository
	now  func() time.Time

	mu    sync.RWMutex
	rates []Rate
}

// NewBoard loads the stored board. When none exists, seed is stamped with
// today's date label and saved.
func NewBoard(ctx context.Context, repo Repository, seed []Rate) (*Board, error) {
	b := &Board{repo: repo, now: time.Now}

	rates, err := repo.LoadMarketRates(ctx)
	switch {
	case errors.Is(err, ErrNoRates):
		today := b.now().Format(DateLayout)
		rates = make([]Rate, len(seed))
		for i, r := range seed {
			if r.Date == "" {
				r.Date = today
			}
			rates[i] = r
		}
		if err := repo.SaveMarketRates(ctx, rates); err != nil {
			return nil, errors.Wrap(err, "save seed market rates")
		}
	case err != nil:
		return nil, errors.Wrap(err, "load market rates")
	}
	b.rates = rates
	return b, nil
}

// List returns the board, newest first, optionally filtered by a
// case-insensitive substring of the crop or market name.
func (b *Board) List(query string) []Rate {
	query = strings.ToLower(strings.TrimSpace(query))

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Rate, 0, len(b.rates))
	for _, r := range b.rates {
		if query == "" ||
			strings.Contains(strings.ToLower(r.Crop), query) ||
			strings.Contains(strings.ToLower(r.Market), query) {
			out = append(out, r)
		}
	}
	return out
}

// Add validates r, fills the default trend and date label and puts it at
// the top of the board.
func (b *Board) Add(ctx context.Context, r Rate) (Rate, error) {
	r.Crop = strings.TrimSpace(r.Crop)
	r.Market = strings.TrimSpace(r.Market)
	r.Price = strings.TrimSpace(r.Price)
	r.Trend = strings.TrimSpace(r.Trend)
	r.Date = strings.TrimSpace(r.Date)
	if err := catalog.ValidateStruct(&r); err != nil {
		return Rate{}, err
	}
	if r.Trend == "" {
		r.Trend = defaultTrend
	}
	if r.Date == "" {
		r.Date = b.now().Format(DateLayout)
	}
	r.ID = uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()

	next := append([]Rate{r}, b.rates...)
	if err := b.repo.SaveMarketRates(ctx, next); err != nil {
		return Rate{}, errors.Wrap(err, "save market rates")
	}
	b.rates = next
	return r, nil
}

// Delete removes the rate with the given id.
func (b *Board) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := -1
	for j, r := range b.rates {
		if r.ID == id {
			i = j
			break
		}
	}
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	next := make([]Rate, 0, len(b.rates)-1)
	next = append(next, b.rates[:i]...)
	next = append(next, b.rates[i+1:]...)
	if err := b.repo.SaveMarketRates(ctx, next); err != nil {
		return errors.Wrap(err, "save market rates")
	}
	b.rates = next
	return nil
}
