package feeds

import (
	"bytes"
	"fmt"
	"strings"
)

// parseFeed parses an RSS or Atom document. gofeed detects which of the two
// it is, so both format hints share this path. Each <item>/<entry> becomes a
// CandidateEntry carrying the source-native date string.
func (p *Parser) parseFeed(body []byte) ([]CandidateEntry, error) {
	feed, err := p.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if feed == nil || len(feed.Items) == 0 {
		return nil, ErrEmptyResult
	}

	entries := make([]CandidateEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		entry := CandidateEntry{
			URL:          link,
			Title:        strings.TrimSpace(item.Title),
			PublishedRaw: strings.TrimSpace(item.Published),
		}
		// Atom feeds carry <updated> when <published> is absent.
		if entry.PublishedRaw == "" {
			entry.PublishedRaw = strings.TrimSpace(item.Updated)
		}
		if len(item.Categories) > 0 {
			entry.SectionHint = strings.TrimSpace(item.Categories[0])
		}

		entries = append(entries, entry)
		if p.maxEntries > 0 && len(entries) >= p.maxEntries {
			break
		}
	}

	if len(entries) == 0 {
		return nil, ErrEmptyResult
	}
	return entries, nil
}
