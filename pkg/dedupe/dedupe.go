package dedupe

import "news-ingest/pkg/domain"

// Dedupe collapses articles sharing a canonical URL. The same URL shows up
// more than once when a source lists it in both a sitemap and an RSS feed,
// or across shards of a paginated index. The more complete instance wins:
// a real publish date beats none, then longer text, then first seen.
// Ordering is stable — the retained instance keeps the position of the
// first occurrence of its URL.
func Dedupe(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	index := make(map[string]int, len(articles))

	for _, article := range articles {
		at, exists := index[article.URL]
		if !exists {
			index[article.URL] = len(out)
			out = append(out, article)
			continue
		}
		if moreComplete(article, out[at]) {
			out[at] = article
		}
	}
	return out
}

// moreComplete reports whether candidate should replace current.
func moreComplete(candidate, current domain.Article) bool {
	if candidate.HasPublishDate() != current.HasPublishDate() {
		return candidate.HasPublishDate()
	}
	return len(candidate.Text) > len(current.Text)
}
