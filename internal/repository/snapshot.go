// Package repository maps shop and visitor state onto snapshot keys of a
// storage.Store.
package repository

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/domain/market"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/domain/visitor"
	"github.com/kastkar/krushi/internal/storage"
	"github.com/kastkar/krushi/internal/wire"
)

// Snapshot keys.
const (
	KeyProducts = "kastkar_products"
	KeyRecent   = "kastkar_recently_viewed"
	KeyVisitors = "kastkar_visitors"
	KeySettings = "kastkar_settings"
	KeyMarket   = "kastkar_market_rates"
)

var (
	_ shop.Repository    = (*SnapshotRepository)(nil)
	_ visitor.Repository = (*SnapshotRepository)(nil)
	_ market.Repository  = (*SnapshotRepository)(nil)
)

// SnapshotRepository implements the shop, visitor and market repositories on
// top of any storage.Store.
type SnapshotRepository struct {
	store storage.Store
}

// NewSnapshotRepository returns a SnapshotRepository over store.
func NewSnapshotRepository(store storage.Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// LoadProducts returns the stored catalog or shop.ErrNoSnapshot.
func (r *SnapshotRepository) LoadProducts(ctx context.Context) ([]catalog.Product, error) {
	data, err := r.get(ctx, KeyProducts)
	if err != nil {
		return nil, err
	}
	return wire.DecodeProducts(data)
}

// SaveProducts replaces the stored catalog.
func (r *SnapshotRepository) SaveProducts(ctx context.Context, products []catalog.Product) error {
	return r.put(ctx, KeyProducts, wire.EncodeProducts(products))
}

// RecentKey is the snapshot key of a session's recently viewed list.
func RecentKey(session string) string {
	return KeyRecent + "_" + session
}

// LoadRecent returns the session's recently viewed ids or shop.ErrNoSnapshot.
func (r *SnapshotRepository) LoadRecent(ctx context.Context, session string) ([]int64, error) {
	data, err := r.get(ctx, RecentKey(session))
	if err != nil {
		return nil, err
	}
	return wire.DecodeIDs(data)
}

// SaveRecent replaces the session's recently viewed ids.
func (r *SnapshotRepository) SaveRecent(ctx context.Context, session string, ids []int64) error {
	return r.put(ctx, RecentKey(session), wire.EncodeIDs(ids))
}

// LoadSettings returns the owner's settings or shop.ErrNoSnapshot.
func (r *SnapshotRepository) LoadSettings(ctx context.Context) (shop.Settings, error) {
	data, err := r.get(ctx, KeySettings)
	if err != nil {
		return shop.Settings{}, err
	}
	return wire.DecodeSettings(data)
}

// SaveSettings replaces the owner's settings.
func (r *SnapshotRepository) SaveSettings(ctx context.Context, s shop.Settings) error {
	return r.put(ctx, KeySettings, wire.EncodeSettings(s))
}

// LoadVisitors returns the visitor log. A missing snapshot is an empty log.
func (r *SnapshotRepository) LoadVisitors(ctx context.Context) ([]visitor.Visitor, error) {
	data, err := r.get(ctx, KeyVisitors)
	if errors.Is(err, shop.ErrNoSnapshot) {
		return []visitor.Visitor{}, nil
	}
	if err != nil {
		return nil, err
	}
	return wire.DecodeVisitors(data)
}

// SaveVisitors replaces the visitor log.
func (r *SnapshotRepository) SaveVisitors(ctx context.Context, visitors []visitor.Visitor) error {
	return r.put(ctx, KeyVisitors, wire.EncodeVisitors(visitors))
}

// LoadMarketRates returns the rate board or market.ErrNoRates.
func (r *SnapshotRepository) LoadMarketRates(ctx context.Context) ([]market.Rate, error) {
	data, err := r.get(ctx, KeyMarket)
	if errors.Is(err, shop.ErrNoSnapshot) {
		return nil, market.ErrNoRates
	}
	if err != nil {
		return nil, err
	}
	return wire.DecodeRates(data)
}

// SaveMarketRates replaces the rate board.
func (r *SnapshotRepository) SaveMarketRates(ctx context.Context, rates []market.Rate) error {
	return r.put(ctx, KeyMarket, wire.EncodeRates(rates))
}

func (r *SnapshotRepository) get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, shop.ErrNoSnapshot
		}
		return nil, errors.Wrapf(err, "load %s", key)
	}
	return data, nil
}

func (r *SnapshotRepository) put(ctx context.Context, key string, data []byte) error {
	if err := r.store.Put(ctx, key, data); err != nil {
		return errors.Wrapf(err, "save %s", key)
	}
	return nil
}
