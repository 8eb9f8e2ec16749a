package feeds

import (
	"context"
	"errors"

	"news-ingest/pkg/fetch"
)

// FormatHint tags a discovery endpoint with its expected document format.
type FormatHint string

const (
	FormatSitemapIndex FormatHint = "sitemap-index"
	FormatSitemap      FormatHint = "sitemap"
	FormatRSS          FormatHint = "rss"
	FormatAtom         FormatHint = "atom"
	FormatUnknown      FormatHint = "unknown"
)

// CandidateEntry is a single article reference extracted from a discovery
// document. It is transient: produced by a parser, consumed immediately by
// the record builder.
type CandidateEntry struct {
	URL          string // required
	Title        string // optional
	PublishedRaw string // optional, source-native date string
	SectionHint  string // optional, from feed category
}

// Parse failure classification. A parser fails only on non-parseable byte
// streams or zero extractable entries after a full pass; well-formed-but-
// unexpected XML is tolerated by ignoring unknown nodes.
var (
	ErrMalformed         = errors.New("malformed document")
	ErrEmptyResult       = errors.New("no entries found")
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrRecursionLimit flags a sitemap index that exceeded the recursion
	// depth bound (e.g. an index referencing itself). Entries collected
	// before the bound was hit are still returned alongside it.
	ErrRecursionLimit = errors.New("sitemap recursion limit exceeded")
)

// Getter is the fetch capability a parser needs to follow sitemap-index
// references. Satisfied by *fetch.Fetcher.
type Getter interface {
	Fetch(ctx context.Context, url string) fetch.Outcome
}
