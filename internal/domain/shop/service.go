// Package shop owns the live application state: the catalog, the owner's
// settings and one cart session per client. Every mutation goes through
// one lock and is persisted before it becomes visible.
package shop

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kastkar/krushi/internal/domain/cart"
	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/pkg/metrics"
)

const instrumentationName = "github.com/kastkar/krushi/internal/domain/shop"

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the tracer provider used for mutation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the meter provider used for cart and order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the clock used for the product of the day.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the single writer of shop state.
type Service struct {
	repo       Repository
	dispatcher Dispatcher
	metrics    *metrics.ShopMetrics
	tracer     trace.Tracer
	meter      metric.Meter
	cartAdds   metric.Int64Counter
	orders     metric.Int64Counter
	now        func() time.Time

	mu       sync.RWMutex
	store    *catalog.Store
	sessions map[string]*session
	settings Settings
}

// NewService restores state from repo. When no product snapshot exists,
// seed becomes the catalog and is saved immediately.
func NewService(
	ctx context.Context,
	repo Repository,
	dispatcher Dispatcher,
	seed []catalog.Product,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		repo:       repo,
		dispatcher: dispatcher,
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
		meter:      otel.GetMeterProvider().Meter(instrumentationName),
		now:        time.Now,
		sessions:   make(map[string]*session),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.cartAdds, err = s.meter.Int64Counter("shop.cart.adds",
		metric.WithDescription("Add-to-cart attempts"),
	); err != nil {
		return nil, errors.Wrap(err, "create cart counter")
	}
	if s.orders, err = s.meter.Int64Counter("shop.orders",
		metric.WithDescription("Orders handed off"),
	); err != nil {
		return nil, errors.Wrap(err, "create order counter")
	}

	products, err := repo.LoadProducts(ctx)
	seeded := false
	switch {
	case errors.Is(err, ErrNoSnapshot):
		products, seeded = seed, true
	case err != nil:
		return nil, errors.Wrap(err, "load products")
	}
	if s.store, err = catalog.NewStore(products); err != nil {
		return nil, errors.Wrap(err, "restore catalog")
	}
	if seeded {
		if err := repo.SaveProducts(ctx, s.store.Snapshot()); err != nil {
			return nil, errors.Wrap(err, "save seed catalog")
		}
	}

	switch s.settings, err = repo.LoadSettings(ctx); {
	case errors.Is(err, ErrNoSnapshot):
		s.settings = DefaultSettings()
	case err != nil:
		return nil, errors.Wrap(err, "load settings")
	}

	s.metrics.Products(s.store.Len())
	return s, nil
}

// --- Reads ---

// Browse returns the display list for c.
func (s *Service) Browse(c catalog.Criteria, owner bool) []Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := catalog.Apply(s.store.Snapshot(), c)
	return s.listings(products, owner)
}

// Options returns the category and company selectors.
func (s *Service) Options() catalog.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.FilterOptions(s.store.Snapshot())
}

// Product returns a single listing without recording a view.
func (s *Service) Product(id int64, owner bool) (Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.store.Get(id)
	if !ok {
		return Listing{}, &catalog.NotFoundError{ProductID: id}
	}
	return s.listing(p, owner), nil
}

// ProductOfTheDay returns today's featured product.
func (s *Service) ProductOfTheDay(owner bool) (Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := catalog.ProductOfTheDay(s.now(), s.store.Snapshot())
	if !ok {
		return Listing{}, false
	}
	return s.listing(p, owner), true
}

// Lookup resolves a scanned code.
func (s *Service) Lookup(code string, owner bool) (Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := catalog.Lookup(s.store.Snapshot(), code)
	if !ok {
		return Listing{}, false
	}
	return s.listing(p, owner), true
}

// Recent returns the session's recently viewed products, most recent first.
func (s *Service) Recent(ctx context.Context, sessionID string, owner bool) ([]Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.listings(catalog.ResolveRecent(sess.recent, s.store.Snapshot()), owner), nil
}

// Share returns the share message for a product, without a price the
// viewer may not see.
func (s *Service) Share(id int64, owner bool) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.store.Get(id)
	if !ok {
		return "", &catalog.NotFoundError{ProductID: id}
	}
	return catalog.ShareText(p, s.priceVisible(p, owner)), nil
}

// PriceAlert evaluates a target price for a product.
func (s *Service) PriceAlert(id int64, target string, owner bool) (catalog.PriceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.store.Get(id)
	if !ok {
		return catalog.PriceAlert{}, &catalog.NotFoundError{ProductID: id}
	}
	return catalog.NewPriceAlert(p, target, s.priceVisible(p, owner))
}

// Export returns the full catalog in store order.
func (s *Service) Export() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Snapshot()
}

// Settings returns the owner's toggles.
func (s *Service) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Cart returns the derived state of the session's cart. An unknown session
// has an empty cart.
func (s *Service) Cart(sessionID string) CartView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := cart.New()
	if sess, ok := s.sessions[sessionID]; ok {
		c = sess.cart
	}
	return CartView{
		Items: c.Items(),
		Total: c.Total(),
		Count: c.Count(),
	}
}

// --- Catalog mutations ---

// AddProduct adds a new product from the owner's draft.
func (s *Service) AddProduct(ctx context.Context, d catalog.Draft) (catalog.Product, error) {
	var out catalog.Product
	err := s.mutateCatalog(ctx, "add", func() (err error) {
		out, err = s.store.Add(d)
		return err
	}, nil)
	return out, err
}

// UpdateProduct applies an owner edit to a product. Fields absent from edit
// and the ratings keep their stored values. Cart lines pick up the new data.
func (s *Service) UpdateProduct(ctx context.Context, id int64, edit catalog.Patch) (catalog.Product, error) {
	var out catalog.Product
	err := s.mutateCatalog(ctx, "update", func() (err error) {
		out, err = s.store.Patch(id, edit)
		return err
	}, func() {
		s.eachCart(func(c *cart.Cart) { c.Refresh(out) })
	})
	return out, err
}

// SetStock sets a product's quantity.
func (s *Service) SetStock(ctx context.Context, id int64, qty int) (catalog.Product, error) {
	var out catalog.Product
	err := s.mutateCatalog(ctx, "stock", func() (err error) {
		out, err = s.store.SetQuantity(id, qty)
		return err
	}, func() {
		s.eachCart(func(c *cart.Cart) { c.Refresh(out) })
	})
	return out, err
}

// RemoveProduct deletes a product and its line from every cart.
func (s *Service) RemoveProduct(ctx context.Context, id int64) error {
	return s.mutateCatalog(ctx, "remove", func() error {
		return s.store.Remove(id)
	}, func() {
		s.eachCart(func(c *cart.Cart) {
			if c.Purge(id) {
				s.metrics.CartEvent("purge", metrics.OutcomeOK)
			}
		})
	})
}

// Rate appends a rating to a product.
func (s *Service) Rate(ctx context.Context, id int64, value int) (catalog.Product, error) {
	var out catalog.Product
	err := s.mutateCatalog(ctx, "rate", func() (err error) {
		out, err = s.store.AddRating(id, value)
		return err
	}, func() {
		s.eachCart(func(c *cart.Cart) { c.Refresh(out) })
	})
	return out, err
}

// ImportCatalog makes products the authoritative list. Cart lines for
// products that no longer exist are dropped from every cart.
func (s *Service) ImportCatalog(ctx context.Context, products []catalog.Product) error {
	return s.mutateCatalog(ctx, "import", func() error {
		return s.store.Replace(products)
	}, func() {
		s.eachCart(func(c *cart.Cart) {
			for _, it := range c.Items() {
				if p, ok := s.store.Get(it.Product.ID); ok {
					c.Refresh(p)
				} else {
					c.Purge(it.Product.ID)
				}
			}
		})
	})
}

// mutateCatalog runs apply under the write lock and persists the result. A
// failed save restores the previous list. after runs only on success.
func (s *Service) mutateCatalog(ctx context.Context, op string, apply func() error, after func()) error {
	ctx, span := s.tracer.Start(ctx, "shop."+op)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.store.Snapshot()
	if err := apply(); err != nil {
		s.metrics.Mutation(op, outcome(err))
		recordError(span, err)
		return err
	}
	if err := s.repo.SaveProducts(ctx, s.store.Snapshot()); err != nil {
		if rerr := s.store.Replace(prev); rerr != nil {
			zctx.From(ctx).Error("Restore catalog after failed save", zap.Error(rerr))
		}
		s.metrics.Mutation(op, metrics.OutcomeFailed)
		err = errors.Wrap(err, "save products")
		recordError(span, err)
		return err
	}
	if after != nil {
		after()
	}
	s.metrics.Mutation(op, metrics.OutcomeOK)
	s.metrics.Products(s.store.Len())
	return nil
}

// --- Viewer state ---

// ViewProduct returns a listing and records it in the session's recently
// viewed list. A failure to persist the list is logged, not returned.
func (s *Service) ViewProduct(ctx context.Context, sessionID string, id int64, owner bool) (Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.store.Get(id)
	if !ok {
		return Listing{}, &catalog.NotFoundError{ProductID: id}
	}
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return Listing{}, err
	}
	sess.recent = catalog.PushRecent(sess.recent, id)
	if err := s.repo.SaveRecent(ctx, sessionID, sess.recent); err != nil {
		zctx.From(ctx).Warn("Save recently viewed", zap.Int64("product_id", id), zap.Error(err))
	}
	return s.listing(p, owner), nil
}

// SetPesticidePrices toggles guest visibility of pesticide prices.
func (s *Service) SetPesticidePrices(ctx context.Context, visible bool) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	next.ShowPesticidePrices = visible
	if err := s.repo.SaveSettings(ctx, next); err != nil {
		return s.settings, errors.Wrap(err, "save settings")
	}
	s.settings = next
	return next, nil
}

// --- Cart ---

// AddToCart adds one unit of a product to the session's cart.
func (s *Service) AddToCart(ctx context.Context, sessionID string, id int64) (cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return cart.Item{}, err
	}
	p, ok := s.store.Get(id)
	if !ok {
		s.countCartAdd(ctx, metrics.OutcomeRejected)
		return cart.Item{}, &catalog.NotFoundError{ProductID: id}
	}
	it, err := sess.cart.Add(p)
	if err != nil {
		s.countCartAdd(ctx, metrics.OutcomeRejected)
		return cart.Item{}, err
	}
	s.countCartAdd(ctx, metrics.OutcomeOK)
	return it, nil
}

// UpdateCartQuantity changes a line of the session's cart by delta.
func (s *Service) UpdateCartQuantity(ctx context.Context, sessionID string, id int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	q, err := sess.cart.UpdateQuantity(id, delta)
	if err != nil {
		s.metrics.CartEvent("update", metrics.OutcomeRejected)
		return 0, err
	}
	s.metrics.CartEvent("update", metrics.OutcomeOK)
	return q, nil
}

// Checkout serializes the session's cart for customer, hands it to the
// dispatcher and empties the cart. The cart is kept when dispatch fails.
func (s *Service) Checkout(ctx context.Context, sessionID string, customer cart.Customer) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "shop.checkout")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if err := customer.Validate(); err != nil {
		recordError(span, err)
		return nil, err
	}
	items := sess.cart.Items()
	msg, err := cart.SerializeOrder(customer, items)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	o := &Order{
		Customer: customer,
		Items:    items,
		Total:    cart.Total(items),
		Message:  msg,
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, o); err != nil {
			err = errors.Wrap(err, "dispatch order")
			recordError(span, err)
			return nil, err
		}
	}

	sess.cart.Clear()
	s.metrics.Order(o.Total.InexactFloat64())
	s.orders.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int("order.lines", len(items)),
		attribute.String("order.total", o.Total.String()),
	)
	return o, nil
}

// --- Helpers ---

func (s *Service) listing(p catalog.Product, owner bool) Listing {
	return Listing{
		Product:      p,
		Stock:        catalog.ClassifyStock(p.Quantity),
		Rating:       catalog.AverageRating(p.Ratings),
		PriceVisible: s.priceVisible(p, owner),
	}
}

func (s *Service) priceVisible(p catalog.Product, owner bool) bool {
	return catalog.PriceVisible(p, owner, s.settings.ShowPesticidePrices)
}

func (s *Service) listings(products []catalog.Product, owner bool) []Listing {
	out := make([]Listing, len(products))
	for i, p := range products {
		out[i] = s.listing(p, owner)
	}
	return out
}

func (s *Service) countCartAdd(ctx context.Context, result string) {
	s.metrics.CartEvent("add", result)
	s.cartAdds.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", result)))
}

func outcome(err error) string {
	var vErr *catalog.ValidationError
	if errors.As(err, &vErr) || errors.Is(err, catalog.ErrNotFound) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
