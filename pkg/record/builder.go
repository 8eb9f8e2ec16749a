package record

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"news-ingest/pkg/config"
	"news-ingest/pkg/content"
	"news-ingest/pkg/dates"
	"news-ingest/pkg/domain"
	"news-ingest/pkg/feeds"
)

// DeepFetcher recovers metadata from an article's own page. Optional; a nil
// fetcher disables deep fetching entirely.
type DeepFetcher interface {
	FetchArticle(ctx context.Context, url string) (content.ArticleMeta, error)
}

// Builder merges a parsed candidate entry, and optionally its deep-fetched
// page, into a normalized Article. Per-article failures stay local: a build
// error means "skip this entry", never "abort the source".
type Builder struct {
	normalizer *dates.Normalizer
	deep       DeepFetcher
	verbose    bool
}

// NewBuilder creates a record builder. deep may be nil.
func NewBuilder(normalizer *dates.Normalizer, deep DeepFetcher, verbose bool) *Builder {
	return &Builder{
		normalizer: normalizer,
		deep:       deep,
		verbose:    verbose,
	}
}

// Build turns entry into an Article for the given source. lastModified is
// the discovery response's Last-Modified header, used as the final date
// fallback. The returned error is a skip reason.
func (b *Builder) Build(ctx context.Context, entry feeds.CandidateEntry, src config.SourceDescriptor, lastModified string) (domain.Article, error) {
	canonical, err := CanonicalURL(entry.URL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("unusable url %q: %w", entry.URL, err)
	}

	parsed, _ := url.Parse(canonical)
	section, subsection := sectionFromPath(parsed.Path)
	if section == "" && entry.SectionHint != "" {
		section = titleize(entry.SectionHint)
	}

	article := domain.Article{
		Title:       strings.TrimSpace(entry.Title),
		URL:         canonical,
		PublishDate: b.normalizer.NormalizeWithFallback(entry.PublishedRaw, lastModified),
		Source:      src.DisplayName,
		Domain:      parsed.Host,
		Section:     section,
		Subsection:  subsection,
		CrawledAt:   time.Now().UTC(),
	}

	if b.deep != nil {
		b.mergeDeepFetch(ctx, &article, lastModified)
	}

	return article, nil
}

// mergeDeepFetch fills in whatever the article page can add. A failed deep
// fetch degrades the record instead of discarding it — partial metadata
// beats silent loss.
func (b *Builder) mergeDeepFetch(ctx context.Context, article *domain.Article, lastModified string) {
	meta, err := b.deep.FetchArticle(ctx, article.URL)
	if err != nil {
		if b.verbose {
			log.Printf("RecordBuilder: deep fetch failed for %s, keeping discovery data: %v", article.URL, err)
		}
		return
	}

	if article.Title == "" {
		article.Title = meta.Title
	}
	article.Summary = meta.Summary
	article.Text = meta.Text
	article.Authors = CleanAuthors(meta.Authors)

	if !article.HasPublishDate() && meta.PublishedRaw != "" {
		article.PublishDate = b.normalizer.NormalizeWithFallback(meta.PublishedRaw, lastModified)
	}
}

// Query parameters that track the reader, not the article.
var trackingParams = map[string]bool{
	"fbclid":     true,
	"gclid":      true,
	"igshid":     true,
	"mc_cid":     true,
	"mc_eid":     true,
	"ref":        true,
	"smid":       true,
	"share":      true,
	"wt_mc":      true,
	"xtor":       true,
	"yclid":      true,
	"_ga":        true,
	"sceid":      true,
	"usqp":       true,
	"outputType": true,
}

// CanonicalURL normalizes a URL for use as a deduplication key: scheme and
// host lowercased, tracking query params stripped, fragment dropped,
// trailing slash removed.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[param] || strings.HasPrefix(strings.ToLower(param), "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	} else {
		u.Path = ""
	}

	return u.String(), nil
}

// Path segments that carry no taxonomy information.
var genericSegments = map[string]bool{
	"noticias":         true,
	"noticia":          true,
	"actualidad":       true,
	"ultimas-noticias": true,
	"articulo":         true,
	"article":          true,
	"articles":         true,
	"news":             true,
	"story":            true,
	"stories":          true,
	"amp":              true,
	"index.html":       true,
}

var titleCaser = cases.Title(language.Und)

// sectionFromPath derives section and subsection from the first two path
// segments that look like taxonomy: not generic filler, not numeric or
// date-like (those are article ids and date components).
func sectionFromPath(path string) (string, string) {
	var relevant []string
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" || len(seg) <= 2 {
			continue
		}
		if genericSegments[seg] {
			continue
		}
		if isNumericLike(seg) {
			continue
		}
		relevant = append(relevant, seg)
		if len(relevant) == 2 {
			break
		}
	}

	switch len(relevant) {
	case 0:
		return "", ""
	case 1:
		return titleize(relevant[0]), ""
	default:
		return titleize(relevant[0]), titleize(relevant[1])
	}
}

// isNumericLike reports whether a segment is purely digits once separators
// are removed (dates like 2024-03-01 or article ids).
func isNumericLike(seg string) bool {
	stripped := strings.NewReplacer("-", "", "_", "", ".", "").Replace(seg)
	if stripped == "" {
		return true
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func titleize(seg string) string {
	seg = strings.ReplaceAll(seg, "-", " ")
	seg = strings.ReplaceAll(seg, "_", " ")
	return titleCaser.String(strings.TrimSpace(seg))
}

// Author separators appearing in bylines.
var authorSeparators = []string{",", ";", " y ", " and ", "&", " e "}

// CleanAuthors trims, splits on common separators, and de-duplicates author
// names case-insensitively, preserving encounter order.
func CleanAuthors(raw []string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, chunk := range raw {
		for _, name := range splitAuthors(chunk) {
			name = strings.Trim(name, " ,.-_|")
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}

func splitAuthors(s string) []string {
	parts := []string{s}
	for _, sep := range authorSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	return parts
}
