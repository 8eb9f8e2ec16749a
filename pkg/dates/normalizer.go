package dates

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ISO-8601 layouts tried first, strictest to loosest.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Feed-native RFC-822/1123 layouts.
var rfc822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// Normalizer converts heterogeneous date representations into a canonical
// UTC instant. The fallback chain is explicit and ordered; when every stage
// fails the result is the zero time, never "now" — silently substituting
// the current timestamp would corrupt downstream freshness filtering.
type Normalizer struct {
	localePatterns []string
}

// NewNormalizer creates a normalizer with the configured locale date
// patterns (Go reference layouts, e.g. "02/01/2006" for day-first sites).
func NewNormalizer(localePatterns []string) *Normalizer {
	return &Normalizer{localePatterns: localePatterns}
}

// Normalize parses raw through the fallback chain: ISO-8601, RFC-822/1123,
// the configured locale patterns, then a permissive last-chance pass.
// Returns the zero time when nothing matches.
func (n *Normalizer) Normalize(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	for _, layout := range rfc822Layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	// Locale patterns are configuration: which side of an ambiguous
	// "01/03/2024" wins is decided by the deployment, not hardcoded here.
	for _, layout := range n.localePatterns {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	if t, err := dateparse.ParseAny(raw); err == nil {
		return t.UTC()
	}

	return time.Time{}
}

// NormalizeWithFallback parses raw, falling back to a <lastmod> value or an
// HTTP Last-Modified header when the primary string yields nothing.
func (n *Normalizer) NormalizeWithFallback(raw, fallback string) time.Time {
	if t := n.Normalize(raw); !t.IsZero() {
		return t
	}
	return n.Normalize(fallback)
}
