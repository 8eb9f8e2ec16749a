package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"news-ingest/pkg/config"
	"news-ingest/pkg/content"
	"news-ingest/pkg/dates"
	"news-ingest/pkg/domain"
	"news-ingest/pkg/feeds"
	"news-ingest/pkg/fetch"
	"news-ingest/pkg/httpclient"
	"news-ingest/pkg/record"
)

// Options are the per-run knobs the driver applies on top of the static
// source configuration.
type Options struct {
	// DaysBack restricts output to articles published within the window.
	// 0 disables the freshness filter.
	DaysBack int
	// MaxPerSource caps each source's output post-dedup, keeping the most
	// recent. 0 disables the cap.
	MaxPerSource int
	// RequireDate excludes articles whose date normalization exhausted all
	// fallbacks from the freshness window. On by default in the CLI.
	RequireDate bool
	// DeepFetch enables the secondary per-article page fetch.
	DeepFetch bool
	Verbose   bool
}

// Driver is the pipeline entry point: it selects sources, fans them out
// through the orchestrator, applies the run-level filters, and hands the
// results to the export collaborator.
type Driver struct {
	store *config.Store
	opts  Options
	now   func() time.Time

	// newRunner builds the pipeline instance for one source. Replaceable
	// in tests.
	newRunner func(src config.SourceDescriptor) SourceRunner
}

// NewDriver creates a driver over the given source store.
func NewDriver(store *config.Store, opts Options) *Driver {
	d := &Driver{
		store: store,
		opts:  opts,
		now:   time.Now,
	}
	d.newRunner = d.buildRunner
	return d
}

// Run executes one pipeline run for the requested source ids (empty = all
// enabled). The run always completes: a fully failed source shows up in its
// own result, never as a returned error. The context carries the overall
// deadline; on expiry in-flight pipelines finish their current fetch and
// return what they have.
func (d *Driver) Run(ctx context.Context, sourceIDs []string) ([]domain.SourceRunResult, error) {
	selected, err := d.store.Select(sourceIDs)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no enabled sources match the request")
	}

	_, concurrency, _ := d.store.Settings()
	log.Printf("Driver: running %d sources with concurrency %d", len(selected), concurrency)

	runners := make([]SourceRunner, 0, len(selected))
	for _, src := range selected {
		runners = append(runners, d.newRunner(src))
	}

	orchestrator := NewOrchestrator(concurrency, d.opts.Verbose)
	results := orchestrator.RunAll(ctx, runners)

	for i := range results {
		d.applyWindow(&results[i])
		d.applyCap(&results[i])
	}
	return results, nil
}

// buildRunner wires the real pipeline for one source: a feed-profile
// fetcher for discovery, a browser-profile fetcher for article pages, the
// format parser, and the record builder.
func (d *Driver) buildRunner(src config.SourceDescriptor) SourceRunner {
	settings, _, localePatterns := d.store.Settings()

	fetchCfg := fetch.Config{
		Timeout:      time.Duration(settings.TimeoutSeconds) * time.Second,
		MaxRetries:   settings.MaxRetries,
		BackoffBase:  time.Duration(settings.BackoffBaseMS) * time.Millisecond,
		BackoffCap:   time.Duration(settings.BackoffCapMS) * time.Millisecond,
		RequestDelay: time.Duration(settings.RequestDelayMS) * time.Millisecond,
		Verbose:      d.opts.Verbose,
	}

	discoveryFetcher := fetch.New(fetchCfg, httpclient.FeedProfile)
	parser := feeds.NewParser(discoveryFetcher, settings.MaxEntriesPerEndpoint, d.opts.Verbose)
	normalizer := dates.NewNormalizer(localePatterns)

	var deep record.DeepFetcher
	if d.opts.DeepFetch {
		articleFetcher := fetch.New(fetchCfg, httpclient.BrowserProfile)
		deep = content.NewExtractor(pageGetter{fetcher: articleFetcher})
	}

	builder := record.NewBuilder(normalizer, deep, d.opts.Verbose)
	return NewSourcePipeline(src, discoveryFetcher, parser, builder, d.opts.Verbose)
}

// applyWindow drops articles older than the daysBack window. Undated
// articles are excluded unless the run opts out of requiring a date.
func (d *Driver) applyWindow(res *domain.SourceRunResult) {
	if d.opts.DaysBack <= 0 {
		return
	}

	cutoff := d.now().UTC().AddDate(0, 0, -d.opts.DaysBack)
	kept := res.Articles[:0]
	for _, a := range res.Articles {
		if !a.HasPublishDate() {
			if !d.opts.RequireDate {
				kept = append(kept, a)
			}
			continue
		}
		if !a.PublishDate.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	res.Articles = kept
}

// applyCap keeps the most recent MaxPerSource articles, undated last.
func (d *Driver) applyCap(res *domain.SourceRunResult) {
	if d.opts.MaxPerSource <= 0 || len(res.Articles) <= d.opts.MaxPerSource {
		return
	}

	sorted := make([]domain.Article, len(res.Articles))
	copy(sorted, res.Articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].HasPublishDate() != sorted[j].HasPublishDate() {
			return sorted[i].HasPublishDate()
		}
		return sorted[i].PublishDate.After(sorted[j].PublishDate)
	})
	res.Articles = sorted[:d.opts.MaxPerSource]
}

// pageGetter adapts a fetcher to the deep-fetch collaborator's page
// interface.
type pageGetter struct {
	fetcher *fetch.Fetcher
}

func (g pageGetter) GetPage(ctx context.Context, url string) (string, error) {
	outcome := g.fetcher.Fetch(ctx, url)
	if !outcome.OK() {
		return "", outcome.Err
	}
	return string(outcome.Body), nil
}
