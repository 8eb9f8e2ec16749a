package export

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"news-ingest/pkg/domain"
)

// Delimiter separates CSV fields. Article text routinely contains commas,
// so the exporters upstream of us standardized on the caret.
const Delimiter = '^'

// Field order of the exported rows.
var header = []string{
	"title", "url", "publish_date", "authors",
	"source", "domain", "summary", "section", "subsection", "text",
}

// CSVExporter writes one delimited file per source per run into outputDir.
type CSVExporter struct {
	outputDir string
}

// NewCSVExporter creates an exporter rooted at outputDir. The directory is
// created on first use.
func NewCSVExporter(outputDir string) *CSVExporter {
	return &CSVExporter{outputDir: outputDir}
}

// Export writes the articles of one source run to
// <slug>_articles_<YYYYMMDD>.csv and returns the file path. An empty result
// still produces a file with just the header row, so a run is visibly
// distinguishable from one that never happened.
func (e *CSVExporter) Export(slug string, articles []domain.Article, runDate time.Time) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_articles_%s.csv", slug, runDate.Format("20060102"))
	path := filepath.Join(e.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = Delimiter

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, a := range articles {
		if err := w.Write(Row(a)); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", a.URL, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}

	log.Printf("Exporter: wrote %d articles to %s", len(articles), path)
	return path, nil
}

// Row serializes one article in the exported field order. Authors collapse
// into a single comma-separated field; an unknown publish date serializes
// as the empty string, not a fabricated timestamp.
func Row(a domain.Article) []string {
	publishDate := ""
	if a.HasPublishDate() {
		publishDate = a.PublishDate.UTC().Format(time.RFC3339)
	}
	return []string{
		a.Title,
		a.URL,
		publishDate,
		strings.Join(a.Authors, ", "),
		a.Source,
		a.Domain,
		a.Summary,
		a.Section,
		a.Subsection,
		a.Text,
	}
}
