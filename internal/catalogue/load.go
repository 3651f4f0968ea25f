package catalogue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/velvetcharms/storefront-backend/pkg/logger"
)

// Recorder receives load statistics. *metrics.CatalogueMetrics implements it.
type Recorder interface {
	SetProducts(n int)
	IncSourceFailure(source string)
}

type Options struct {
	Fetcher  Fetcher
	Logger   *logger.Logger
	Recorder Recorder
}

// Report describes what a load did. A non-nil Err never means the index is
// unusable; it lists the sources that were skipped.
type Report struct {
	Loaded   []string
	Failed   []string
	Skipped  []string
	Products int
	Err      error
}

type fetched struct {
	doc Document
	err error
}

// Load fetches every source concurrently and merges them in list order, later
// sources overriding earlier ones per product id. Failing sources are skipped;
// an empty index is a valid result.
func Load(ctx context.Context, sources []string, opts Options) (*Index, Report) {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(0, "")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	results := make([]fetched, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, source := range sources {
		g.Go(func() error {
			results[i] = fetchDocument(gctx, fetcher, source)
			return nil
		})
	}
	_ = g.Wait()

	index := NewIndex()
	var report Report
	for i, source := range sources {
		res := results[i]
		if res.err != nil {
			report.Failed = append(report.Failed, source)
			report.Err = multierr.Append(report.Err, fmt.Errorf("%s: %w", source, res.err))
			if opts.Recorder != nil {
				opts.Recorder.IncSourceFailure(source)
			}
			logg.Warn(logg.WithFields(ctx, map[string]any{"source": source, "error": res.err.Error()}), "catalogue source skipped")
			continue
		}
		skipped := index.merge(source, res.doc)
		for _, reason := range skipped {
			logg.Warn(logg.WithFields(ctx, map[string]any{"source": source, "reason": reason}), "catalogue product skipped")
		}
		report.Skipped = append(report.Skipped, skipped...)
		report.Loaded = append(report.Loaded, source)
	}
	report.Products = index.Len()
	if opts.Recorder != nil {
		opts.Recorder.SetProducts(report.Products)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"loaded":   len(report.Loaded),
		"failed":   len(report.Failed),
		"products": report.Products,
	}), "catalogue loaded")
	return index, report
}

func fetchDocument(ctx context.Context, fetcher Fetcher, source string) fetched {
	raw, err := fetcher.Fetch(ctx, source)
	if err != nil {
		return fetched{err: fmt.Errorf("fetch: %w", err)}
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fetched{err: fmt.Errorf("parse: %w", err)}
	}
	return fetched{doc: doc}
}
