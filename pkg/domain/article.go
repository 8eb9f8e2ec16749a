package domain

import "time"

// Article represents a normalized news article produced by a pipeline run.
// URL is the canonical form (lowercased scheme+host, tracking params
// stripped) and is unique within one run's output.
type Article struct {
	Title       string    `bson:"title"`
	URL         string    `bson:"url"`
	PublishDate time.Time `bson:"publish_date,omitempty"`
	Authors     []string  `bson:"authors,omitempty"`
	Source      string    `bson:"source"`
	Domain      string    `bson:"domain"`
	Summary     string    `bson:"summary,omitempty"`
	Section     string    `bson:"section,omitempty"`
	Subsection  string    `bson:"subsection,omitempty"`
	Text        string    `bson:"text,omitempty"`
	CrawledAt   time.Time `bson:"crawled_at"`
}

// HasPublishDate reports whether date normalization produced a real instant.
// A zero time means every fallback was exhausted; the pipeline never
// substitutes "now" for an unknown publish date.
func (a *Article) HasPublishDate() bool {
	return !a.PublishDate.IsZero()
}
