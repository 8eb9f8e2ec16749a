package feeds

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Parser turns discovery documents into candidate entries. It holds a
// fetcher only to follow sitemap-index references; the initial document is
// always fetched by the caller.
type Parser struct {
	getter     Getter
	feedParser *gofeed.Parser
	maxEntries int
	verbose    bool
}

// NewParser creates a parser. maxEntries soft-limits the entries taken from
// one endpoint (0 = unlimited); getter may be nil when sitemap indexes are
// not expected.
func NewParser(getter Getter, maxEntries int, verbose bool) *Parser {
	return &Parser{
		getter:     getter,
		feedParser: gofeed.NewParser(),
		maxEntries: maxEntries,
		verbose:    verbose,
	}
}

// Parse extracts candidate entries from body according to the format hint.
// An unknown hint tries sitemap-index, sitemap, then RSS/Atom, accepting
// the first format that is not malformed. HTML bodies classify as malformed
// regardless of hint.
func (p *Parser) Parse(ctx context.Context, body []byte, hint FormatHint) ([]CandidateEntry, error) {
	if len(body) == 0 {
		return nil, ErrEmptyResult
	}
	if looksLikeHTML(body) {
		return nil, fmt.Errorf("%w: endpoint returned an HTML page", ErrMalformed)
	}

	switch hint {
	case FormatSitemapIndex:
		if p.getter == nil {
			return nil, fmt.Errorf("%w: no fetcher for sitemap index", ErrUnsupportedFormat)
		}
		return p.parseSitemapIndex(ctx, body, 0)
	case FormatSitemap:
		return p.parseSitemap(body)
	case FormatRSS, FormatAtom:
		return p.parseFeed(body)
	case FormatUnknown, "":
		return p.detect(ctx, body)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, hint)
	}
}

// detect attempts each supported format in order and accepts the first that
// parses without being malformed.
func (p *Parser) detect(ctx context.Context, body []byte) ([]CandidateEntry, error) {
	if looksLikeSitemapIndex(body) && p.getter != nil {
		return p.parseSitemapIndex(ctx, body, 0)
	}

	entries, err := p.parseSitemap(body)
	if err == nil || !errors.Is(err, ErrMalformed) && !errors.Is(err, ErrEmptyResult) {
		return entries, err
	}
	sitemapErr := err

	entries, err = p.parseFeed(body)
	if err == nil || !errors.Is(err, ErrMalformed) {
		return entries, err
	}

	if errors.Is(sitemapErr, ErrEmptyResult) {
		return nil, sitemapErr
	}
	return nil, fmt.Errorf("%w: no supported format matched", ErrMalformed)
}
