package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"news-ingest/pkg/config"
	"news-ingest/pkg/dedupe"
	"news-ingest/pkg/domain"
	"news-ingest/pkg/feeds"
	"news-ingest/pkg/fetch"
)

// State is a stage in a source pipeline's lifecycle.
type State string

const (
	StatePending       State = "pending"
	StateDiscovering   State = "discovering"
	StateFetching      State = "fetching"
	StateParsing       State = "parsing"
	StateNormalizing   State = "normalizing"
	StateDeduplicating State = "deduplicating"
)

// Fetcher retrieves a discovery endpoint or article page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetch.Outcome
}

// EntryParser turns a discovery document into candidate entries.
type EntryParser interface {
	Parse(ctx context.Context, body []byte, hint feeds.FormatHint) ([]feeds.CandidateEntry, error)
}

// RecordBuilder merges one candidate entry into a normalized article.
type RecordBuilder interface {
	Build(ctx context.Context, entry feeds.CandidateEntry, src config.SourceDescriptor, lastModified string) (domain.Article, error)
}

// SourcePipeline runs the full discovery → normalize → dedupe flow for one
// source. Each instance owns its own fetcher, parser and builder, so no
// error or state can cross into another source's run.
type SourcePipeline struct {
	src     config.SourceDescriptor
	fetcher Fetcher
	parser  EntryParser
	builder RecordBuilder
	verbose bool

	state State
}

// NewSourcePipeline assembles a pipeline instance for src.
func NewSourcePipeline(src config.SourceDescriptor, fetcher Fetcher, parser EntryParser, builder RecordBuilder, verbose bool) *SourcePipeline {
	return &SourcePipeline{
		src:     src,
		fetcher: fetcher,
		parser:  parser,
		builder: builder,
		verbose: verbose,
		state:   StatePending,
	}
}

// ID returns the source id this pipeline serves.
func (p *SourcePipeline) ID() string {
	return p.src.ID
}

// pendingEntry pairs a candidate entry with the Last-Modified header of the
// discovery response it came from, kept for the date fallback chain.
type pendingEntry struct {
	entry        feeds.CandidateEntry
	lastModified string
}

// Run executes the pipeline and always returns a result; every failure mode
// is folded into the result's status and error list. Failed is reached only
// when no discovery endpoint yields a single entry.
func (p *SourcePipeline) Run(ctx context.Context) domain.SourceRunResult {
	res := domain.SourceRunResult{SourceID: p.src.ID}

	pending := p.discover(ctx, &res)
	res.EntriesSeen = len(pending)

	if len(pending) == 0 {
		res.Status = domain.StatusFailed
		log.Printf("Source %s: failed, no discovery endpoint produced entries", p.src.ID)
		return res
	}

	p.setState(StateNormalizing)
	for _, pe := range pending {
		if ctx.Err() != nil {
			// Deadline hit: keep what is already built, abandon the rest.
			res.Errors = append(res.Errors, "run deadline reached during normalization")
			break
		}

		article, err := p.builder.Build(ctx, pe.entry, p.src, pe.lastModified)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, err.Error())
			if p.verbose {
				log.Printf("Source %s: skipping entry: %v", p.src.ID, err)
			}
			continue
		}
		res.Articles = append(res.Articles, article)
	}

	p.setState(StateDeduplicating)
	res.Articles = dedupe.Dedupe(res.Articles)

	if len(res.Errors) > 0 {
		res.Status = domain.StatusCompletedWithErrors
	} else {
		res.Status = domain.StatusCompleted
	}

	log.Printf("Source %s: %s, %d entries seen, %d articles, %d skipped",
		p.src.ID, res.Status, res.EntriesSeen, len(res.Articles), res.Skipped)
	return res
}

// discover walks the source's discovery endpoints in configured order.
// Endpoint-level failures (exhausted retries, malformed documents) are
// recorded and the next endpoint is tried; they never abort the source.
func (p *SourcePipeline) discover(ctx context.Context, res *domain.SourceRunResult) []pendingEntry {
	p.setState(StateDiscovering)

	var pending []pendingEntry
	for _, ep := range p.src.Endpoints {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, "run deadline reached during discovery")
			break
		}

		p.setState(StateFetching)
		outcome := p.fetcher.Fetch(ctx, ep.URL)
		if !outcome.OK() {
			res.Errors = append(res.Errors, fmt.Sprintf("endpoint %s: %v", ep.URL, outcome.Err))
			log.Printf("Source %s: endpoint %s unreachable (retries exhausted: %v): %v",
				p.src.ID, ep.URL, outcome.RetriesExhausted, outcome.Err)
			continue
		}

		p.setState(StateParsing)
		entries, err := p.parser.Parse(ctx, outcome.Body, ep.Format)
		if err != nil && !errors.Is(err, feeds.ErrRecursionLimit) {
			res.Errors = append(res.Errors, fmt.Sprintf("endpoint %s: %v", ep.URL, err))
			log.Printf("Source %s: endpoint %s yielded no entries: %v", p.src.ID, ep.URL, err)
			continue
		}
		if errors.Is(err, feeds.ErrRecursionLimit) {
			// Partial result: keep what the bounded recursion collected.
			res.Errors = append(res.Errors, fmt.Sprintf("endpoint %s: %v", ep.URL, err))
			log.Printf("Source %s: endpoint %s hit the sitemap recursion bound, keeping %d entries",
				p.src.ID, ep.URL, len(entries))
		}

		if p.verbose {
			log.Printf("Source %s: endpoint %s produced %d entries", p.src.ID, ep.URL, len(entries))
		}
		for _, entry := range entries {
			pending = append(pending, pendingEntry{entry: entry, lastModified: outcome.LastModified})
		}
	}

	return pending
}

func (p *SourcePipeline) setState(s State) {
	p.state = s
	if p.verbose {
		log.Printf("Source %s: state -> %s", p.src.ID, s)
	}
}
