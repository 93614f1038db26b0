package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/kastkar/krushi/internal/app"
	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/repository"
	"github.com/kastkar/krushi/internal/wire"
)

const (
	maxLineBytes  = 1 << 20
	progressEvery = 10_000
)

func main() {
	var keepExisting bool

	storageCfg := app.StorageFlags(flag.CommandLine)
	flag.BoolVar(&keepExisting, "keep-existing", false, "merge with the stored catalog; stored records win")
	flag.Usage = func() {
		_, _ = io.WriteString(flag.CommandLine.Output(), "usage: catalog-import [flags] dump1.jsonl.gz [dump2.jsonl.gz ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	storageCfg.ApplyEnv()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, *storageCfg, files, keepExisting); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, cfg app.StorageConfig, files []string, keepExisting bool) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("reading dumps", slog.Int("files", len(files)))

	perFile, err := readDumps(ctx, files)
	if err != nil {
		return errors.Wrap(err, "read dumps")
	}

	slog.Info("connecting to storage", slog.String("driver", cfg.Driver))

	snapshots, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	repo := repository.NewSnapshotRepository(snapshots)

	if keepExisting {
		existing, err := repo.LoadProducts(ctx)
		switch {
		case err == nil:
			perFile = append([][]catalog.Product{existing}, perFile...)
		case errors.Is(err, shop.ErrNoSnapshot):
			slog.Info("no stored catalog to keep")
		default:
			return errors.Wrap(err, "load existing catalog")
		}
	}

	merged, dups := mergeFirstWins(perFile)
	slog.Info("merged dumps", slog.Int("products", len(merged)), slog.Int("duplicates", dups))

	store, err := catalog.NewStore(merged)
	if err != nil {
		return errors.Wrap(err, "validate merged catalog")
	}
	if err := repo.SaveProducts(ctx, store.Snapshot()); err != nil {
		return errors.Wrap(err, "save catalog")
	}

	return nil
}

// readDumps parses every file concurrently. The result keeps file order.
func readDumps(ctx context.Context, files []string) ([][]catalog.Product, error) {
	results := make([][]catalog.Product, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			products, err := readDump(ctx, f)
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			slog.Info("dump read", slog.Int("file", i+1), slog.Int("products", len(products)))
			results[i] = products
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readDump(ctx context.Context, path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	return decodeLines(ctx, gz)
}

// decodeLines reads one product object per line. Blank lines are skipped.
func decodeLines(ctx context.Context, r io.Reader) ([]catalog.Product, error) {
	var products []catalog.Product

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		p, err := wire.DecodeProduct(jx.DecodeBytes(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		products = append(products, p)
		if len(products)%progressEvery == 0 {
			slog.Info("read progress", slog.Int("products", len(products)))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return products, nil
}

// mergeFirstWins flattens lists in order, keeping the first record seen for
// each id. It returns the number of dropped duplicates.
func mergeFirstWins(lists [][]catalog.Product) ([]catalog.Product, int) {
	seen := make(map[int64]struct{})
	var (
		out  []catalog.Product
		dups int
	)
	for _, list := range lists {
		for _, p := range list {
			if _, ok := seen[p.ID]; ok {
				dups++
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out, dups
}
