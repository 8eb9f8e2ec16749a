package store

import (
	"context"

	"news-ingest/pkg/domain"
)

// ArticleSaver persists normalized articles. Saving is optional bookkeeping
// downstream of the CSV export; a run succeeds or fails on its pipeline
// results, not on its saver.
type ArticleSaver interface {
	SaveArticle(ctx context.Context, article *domain.Article) error
}
