// Package visitor records walk-in visitors to the shop.
package visitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/kastkar/krushi/internal/domain/catalog"
)

const (
	bloomCapacity = 100_000
	bloomFPR      = 0.001
)

// Visitor is one entry of the visitor log.
type Visitor struct {
	ID        string
	Name      string `json:"name" validate:"required,max=100"`
	Mobile    string `json:"mobile" validate:"required,len=10,numeric"`
	Village   string `json:"village" validate:"required,max=100"`
	CreatedAt time.Time
}

// Repository persists the visitor log, newest first.
type Repository interface {
	LoadVisitors(ctx context.Context) ([]Visitor, error)
	SaveVisitors(ctx context.Context, visitors []Visitor) error
}

// Registry keeps the visitor log and a Bloom filter of known mobiles used to
// decide whether the welcome prompt should be shown.
type Registry struct {
	repo Repository
	now  func() time.Time

	mu       sync.Mutex
	visitors []Visitor
	seen     *bloom.BloomFilter
}

// NewRegistry loads the existing log from repo.
func NewRegistry(ctx context.Context, repo Repository) (*Registry, error) {
	visitors, err := repo.LoadVisitors(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load visitors")
	}
	r := &Registry{
		repo:     repo,
		now:      time.Now,
		visitors: visitors,
		seen:     bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
	for _, v := range visitors {
		r.seen.AddString(v.Mobile)
	}
	return r, nil
}

// Register validates v, stamps it and prepends it to the log.
func (r *Registry) Register(ctx context.Context, v Visitor) (Visitor, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.Mobile = strings.TrimSpace(v.Mobile)
	v.Village = strings.TrimSpace(v.Village)
	if err := catalog.ValidateStruct(&v); err != nil {
		return Visitor{}, err
	}
	v.ID = uuid.New().String()
	v.CreatedAt = r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	next := append([]Visitor{v}, r.visitors...)
	if err := r.repo.SaveVisitors(ctx, next); err != nil {
		return Visitor{}, errors.Wrap(err, "save visitors")
	}
	r.visitors = next
	r.seen.AddString(v.Mobile)
	return v, nil
}

// Seen reports whether mobile has probably registered before. False
// positives are possible, false negatives are not.
func (r *Registry) Seen(mobile string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen.TestString(strings.TrimSpace(mobile))
}

// List returns the log, newest first, optionally filtered by a
// case-insensitive substring of name, village or mobile.
func (r *Registry) List(query string) []Visitor {
	query = strings.ToLower(strings.TrimSpace(query))

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Visitor, 0, len(r.visitors))
	for _, v := range r.visitors {
		if query == "" ||
			strings.Contains(strings.ToLower(v.Name), query) ||
			strings.Contains(strings.ToLower(v.Village), query) ||
			strings.Contains(v.Mobile, query) {
			out = append(out, v)
		}
	}
	return out
}
