package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"news-ingest/pkg/config"
	"news-ingest/pkg/domain"
	"news-ingest/pkg/export"
	"news-ingest/pkg/pipeline"
	"news-ingest/pkg/store"
)

// AppOptions holds the run configuration from command-line flags and
// environment variables.
type AppOptions struct {
	Config         string `long:"config" env:"NEWS_INGEST_CONFIG" description:"Path to the sources YAML file"`
	Sources        string `short:"s" long:"sources" description:"Comma-separated source ids (default: all enabled)"`
	DaysBack       int    `long:"days-back" default:"1" description:"Only keep articles published within the last N days"`
	MaxArticles    int    `long:"max-articles" default:"0" description:"Hard cap on articles per source (0 = unlimited)"`
	DeepFetch      bool   `long:"deep-fetch" description:"Fetch each article page to recover authors, summary and text"`
	IncludeUndated bool   `long:"include-undated" description:"Keep articles whose publish date could not be normalized"`
	OutputDir      string `short:"o" long:"output" default:"output" description:"Directory for exported CSV files"`
	RunTimeout     int    `long:"run-timeout" default:"0" description:"Overall run deadline in seconds (0 = none)"`
	MongoURI       string `long:"mongo-uri" env:"MONGO_URI" description:"Optional MongoDB connection string for persisting articles"`
	PostgresDSN    string `long:"postgres-dsn" env:"POSTGRES_DSN" description:"Optional Postgres DSN for persisting articles"`
	Debug          bool   `short:"d" long:"debug" description:"Verbose per-stage logging"`
}

func main() {
	log.SetFlags(log.LstdFlags)

	opts := loadOptions()
	if opts == nil {
		return
	}

	cfgStore, err := config.Load(opts.Config)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	if opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.RunTimeout)*time.Second)
		defer cancel()
	}

	driver := pipeline.NewDriver(cfgStore, pipeline.Options{
		DaysBack:     opts.DaysBack,
		MaxPerSource: opts.MaxArticles,
		RequireDate:  !opts.IncludeUndated,
		DeepFetch:    opts.DeepFetch,
		Verbose:      opts.Debug,
	})

	results, err := driver.Run(ctx, splitSources(opts.Sources))
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	exportResults(cfgStore, results, opts.OutputDir)

	if saver, closeSaver := openSaver(ctx, opts); saver != nil {
		saveResults(ctx, saver, results)
		closeSaver()
	}

	anySucceeded := false
	for _, res := range results {
		log.Printf("Summary: source=%s status=%s entries=%d articles=%d skipped=%d errors=%d",
			res.SourceID, res.Status, res.EntriesSeen, len(res.Articles), res.Skipped, len(res.Errors))
		if res.Succeeded() {
			anySucceeded = true
		}
	}

	// Partial success is success; only a run where every source failed
	// exits non-zero.
	if !anySucceeded {
		log.Printf("Every requested source failed")
		os.Exit(1)
	}
}

func loadOptions() *AppOptions {
	var opts AppOptions

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		os.Exit(2)
	}
	return &opts
}

func splitSources(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func exportResults(cfgStore *config.Store, results []domain.SourceRunResult, outputDir string) {
	slugs := make(map[string]string)
	for _, src := range cfgStore.Sources() {
		slugs[src.ID] = src.Slug()
	}

	exporter := export.NewCSVExporter(outputDir)
	runDate := time.Now()

	for _, res := range results {
		if res.Status == domain.StatusFailed {
			continue
		}
		slug := slugs[res.SourceID]
		if slug == "" {
			slug = res.SourceID
		}
		if _, err := exporter.Export(slug, res.Articles, runDate); err != nil {
			log.Printf("Export failed for source %s: %v", res.SourceID, err)
		}
	}
}

// openSaver wires the optional article sink and returns it with its cleanup.
// A sink that cannot connect is logged and skipped; persistence never fails
// the run.
func openSaver(ctx context.Context, opts *AppOptions) (store.ArticleSaver, func()) {
	switch {
	case opts.MongoURI != "":
		mongoStore, err := store.NewMongoStore(opts.MongoURI, "newsingest", "articles")
		if err == nil {
			err = mongoStore.Connect(ctx)
		}
		if err != nil {
			log.Printf("Mongo store unavailable, skipping persistence: %v", err)
			return nil, nil
		}
		return mongoStore, func() {
			if err := mongoStore.Close(ctx); err != nil {
				log.Printf("Failed to close mongo store: %v", err)
			}
		}

	case opts.PostgresDSN != "":
		pgStore := store.NewPostgresStore(store.PostgresConfig{DSN: opts.PostgresDSN})
		if err := pgStore.Connect(ctx); err != nil {
			log.Printf("Postgres store unavailable, skipping persistence: %v", err)
			return nil, nil
		}
		return pgStore, func() {
			if err := pgStore.Close(); err != nil {
				log.Printf("Failed to close postgres store: %v", err)
			}
		}
	}
	return nil, nil
}

// urlLister is the optional seen-set capability a saver may offer.
type urlLister interface {
	KnownURLs(ctx context.Context) (map[string]bool, error)
}

func saveResults(ctx context.Context, saver store.ArticleSaver, results []domain.SourceRunResult) {
	known := map[string]bool{}
	if lister, ok := saver.(urlLister); ok {
		k, err := lister.KnownURLs(ctx)
		if err != nil {
			log.Printf("Could not load known URLs, saving everything: %v", err)
		} else {
			known = k
		}
	}

	saved, skipped, failed := 0, 0, 0
	for _, res := range results {
		for i := range res.Articles {
			if known[res.Articles[i].URL] {
				skipped++
				continue
			}
			if err := saver.SaveArticle(ctx, &res.Articles[i]); err != nil {
				failed++
				log.Printf("Failed to save article %s: %v", res.Articles[i].URL, err)
				continue
			}
			saved++
		}
	}
	log.Printf("Persistence: saved %d articles, %d already known, %d failures", saved, skipped, failed)
}
