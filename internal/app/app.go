package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kastkar/krushi/db"
	"github.com/kastkar/krushi/internal/domain/advisory"
	"github.com/kastkar/krushi/internal/domain/auth"
	"github.com/kastkar/krushi/internal/domain/market"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/domain/visitor"
	"github.com/kastkar/krushi/internal/handler"
	"github.com/kastkar/krushi/internal/handoff"
	"github.com/kastkar/krushi/internal/repository"
	"github.com/kastkar/krushi/internal/wire"
	"github.com/kastkar/krushi/pkg/health"
	"github.com/kastkar/krushi/pkg/httpmiddleware"
	"github.com/kastkar/krushi/pkg/metrics"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			lg.Error("Close storage", zap.Error(err))
		}
	}()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("storage", 5*time.Second, health.PingCheck(store))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)

	// Domain services.
	seed, err := wire.DecodeProducts(db.SeedProducts)
	if err != nil {
		return errors.Wrap(err, "decode seed catalog")
	}
	repo := repository.NewSnapshotRepository(store)

	var notifier handoff.Notifier
	if cfg.SMTP.Host != "" {
		mailer, err := handoff.NewMailer(handoff.MailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		})
		if err != nil {
			return errors.Wrap(err, "create mailer")
		}
		notifier = mailer
	}
	dispatcher := handoff.NewDispatcher(cfg.Shop.WhatsAppContact, notifier)

	shopSvc, err := shop.NewService(ctx, repo, dispatcher, seed,
		shop.WithTracerProvider(m.TracerProvider()),
		shop.WithMeterProvider(m.MeterProvider()),
		shop.WithMetrics(metrics.NewShopMetrics(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		return errors.Wrap(err, "create shop service")
	}
	visitors, err := visitor.NewRegistry(ctx, repo)
	if err != nil {
		return errors.Wrap(err, "create visitor registry")
	}
	seedRates, err := wire.DecodeRates(db.SeedMarketRates)
	if err != nil {
		return errors.Wrap(err, "decode seed market rates")
	}
	rates, err := market.NewBoard(ctx, repo, seedRates)
	if err != nil {
		return errors.Wrap(err, "create market rate board")
	}
	verifier, err := auth.NewVerifier(
		auth.Owner{ID: cfg.Owner.ID, KeyHash: cfg.Owner.KeyHash},
		[]byte(cfg.Owner.Pepper),
	)
	if err != nil {
		return errors.Wrap(err, "create owner verifier")
	}
	if !verifier.Enabled() {
		lg.Warn("Owner login disabled: KASTKAR_OWNER_ID is not set")
	}

	// HTTP handlers.
	h := handler.New(
		handler.Config{Location: cfg.Weather.Location},
		shopSvc,
		visitors,
		rates,
		advisory.NewForecaster(cfg.Weather.Seed),
		verifier,
	)

	// Router: health endpoints, metrics and the API on one server.
	r := chi.NewRouter()
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	r.Handle("/metrics", promhttp.Handler())
	h.Register(r)

	routeFinder := httpmiddleware.MakeRouteFinder(r)
	infra := func(req *http.Request) bool {
		switch req.URL.Path {
		case "/livez", "/readyz", "/metrics":
			return true
		}
		return false
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(r,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Owner-Id", "X-Owner-Key", "X-Cart-Id"},
				ExposeHeaders:    []string{"X-Cart-Id", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           24 * time.Hour,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Default: httpmiddleware.Limit{Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window},
				Classes: []httpmiddleware.RateClass{{
					Name:  "writes",
					Limit: httpmiddleware.Limit{Max: cfg.RateLimit.WritesMax, Window: cfg.RateLimit.WritesWindow},
					Match: handler.GuestWrite,
				}},
				Exempt: infra,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("kastkar-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
