package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ArticleMeta is the best-effort metadata recovered from an article's own
// page: everything a discovery entry may be missing.
type ArticleMeta struct {
	Title        string
	Summary      string
	Text         string
	Authors      []string
	PublishedRaw string
}

// PageGetter fetches a single article page and returns its HTML.
// Satisfied by the fetch package through a small adapter in the pipeline.
type PageGetter interface {
	GetPage(ctx context.Context, url string) (string, error)
}

// Extractor recovers article metadata from HTML. Readability drives the
// body text; goquery reads the meta tags readability ignores.
type Extractor struct {
	getter PageGetter
}

// NewExtractor creates a deep-fetch extractor backed by the given page
// getter.
func NewExtractor(getter PageGetter) *Extractor {
	return &Extractor{getter: getter}
}

// FetchArticle fetches the article page and extracts metadata from it. A
// failure here is always recoverable for the caller: the discovery entry
// still stands on its own.
func (e *Extractor) FetchArticle(ctx context.Context, url string) (ArticleMeta, error) {
	html, err := e.getter.GetPage(ctx, url)
	if err != nil {
		return ArticleMeta{}, fmt.Errorf("failed to fetch article page: %w", err)
	}
	return ExtractMeta(html)
}

// ExtractMeta extracts article metadata from raw HTML.
func ExtractMeta(html string) (ArticleMeta, error) {
	var meta ArticleMeta

	if article, err := readability.FromReader(strings.NewReader(html), nil); err == nil {
		meta.Title = strings.TrimSpace(article.Title)
		meta.Text = strings.TrimSpace(article.TextContent)
		meta.Summary = strings.TrimSpace(article.Excerpt)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		if meta.Text == "" {
			return ArticleMeta{}, fmt.Errorf("failed to parse HTML: %w", err)
		}
		return meta, nil
	}

	if meta.Title == "" {
		meta.Title = metaContent(doc, `meta[property="og:title"]`)
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if summary := metaContent(doc, `meta[name="description"]`); summary != "" {
		meta.Summary = summary
	} else if summary := metaContent(doc, `meta[property="og:description"]`); summary != "" {
		meta.Summary = summary
	}

	meta.Authors = extractAuthors(doc)
	meta.PublishedRaw = extractPublished(doc)

	return meta, nil
}

// The meta tag names news CMSes use for bylines, most common first.
var authorSelectors = []string{
	`meta[name="author"]`,
	`meta[property="article:author"]`,
	`meta[name="dc.creator"]`,
	`meta[name="dcterms.creator"]`,
	`meta[name="sailthru.author"]`,
	`meta[name="parsely-author"]`,
	`meta[name="twitter:creator"]`,
}

func extractAuthors(doc *goquery.Document) []string {
	var authors []string
	for _, sel := range authorSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr("content"); ok {
				v = strings.TrimSpace(v)
				// Twitter handles are not bylines.
				if v != "" && !strings.HasPrefix(v, "@") && !strings.HasPrefix(v, "http") {
					authors = append(authors, v)
				}
			}
		})
		if len(authors) > 0 {
			break
		}
	}
	return authors
}

var publishedSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[property="og:article:published_time"]`,
	`meta[name="date"]`,
	`meta[itemprop="datePublished"]`,
	`meta[property="article:modified_time"]`,
}

func extractPublished(doc *goquery.Document) string {
	for _, sel := range publishedSelectors {
		if v := metaContent(doc, sel); v != "" {
			return v
		}
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func metaContent(doc *goquery.Document, selector string) string {
	if v, ok := doc.Find(selector).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
