package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/kastkar/krushi/db"
	"github.com/kastkar/krushi/internal/app"
	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/repository"
	"github.com/kastkar/krushi/internal/wire"
)

func main() {
	var (
		productsFile string
		force        bool
	)

	storageCfg := app.StorageFlags(flag.CommandLine)
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (default: built-in catalog)")
	flag.BoolVar(&force, "force", false, "overwrite an existing catalog snapshot")
	flag.Parse()
	storageCfg.ApplyEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, *storageCfg, productsFile, force); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, cfg app.StorageConfig, productsFile string, force bool) error {
	products, err := readProducts(productsFile)
	if err != nil {
		return err
	}

	// NewStore applies the same checks as the running service.
	store, err := catalog.NewStore(products)
	if err != nil {
		return errors.Wrap(err, "validate products")
	}

	slog.Info("connecting to storage", slog.String("driver", cfg.Driver))

	snapshots, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	repo := repository.NewSnapshotRepository(snapshots)

	if !force {
		existing, err := repo.LoadProducts(ctx)
		switch {
		case err == nil:
			slog.Info("catalog snapshot already present, skipping (use --force to overwrite)",
				slog.Int("count", len(existing)),
			)
			return nil
		case !errors.Is(err, shop.ErrNoSnapshot):
			return errors.Wrap(err, "load existing catalog")
		}
	}

	slog.Info("writing catalog", slog.Int("count", store.Len()))

	if err := repo.SaveProducts(ctx, store.Snapshot()); err != nil {
		return errors.Wrap(err, "save catalog")
	}

	for _, p := range store.Snapshot() {
		slog.Info("seeded product", slog.Int64("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func readProducts(path string) ([]catalog.Product, error) {
	data := db.SeedProducts
	if path != "" {
		slog.Info("reading products file", slog.String("path", path))

		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read products file")
		}
	}

	products, err := wire.DecodeProducts(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	return products, nil
}
