package feeds

import (
	"context"
	"errors"
	"testing"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Portada</title>
	<link>https://example.com</link>
	<item>
		<title>Primera noticia</title>
		<link>https://example.com/politica/primera-noticia</link>
		<pubDate>Fri, 01 Mar 2024 10:00:00 +0100</pubDate>
		<category>Política</category>
		<description>Resumen de la primera noticia.</description>
	</item>
	<item>
		<title>Segunda noticia</title>
		<link>https://example.com/economia/segunda-noticia</link>
	</item>
	<item>
		<title>Sin enlace</title>
	</item>
</channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Portada</title>
	<id>urn:example</id>
	<updated>2024-03-01T10:00:00Z</updated>
	<entry>
		<title>Entrada sin published</title>
		<id>urn:example:1</id>
		<link href="https://example.com/cultura/entrada"/>
		<updated>2024-03-01T10:00:00Z</updated>
	</entry>
</feed>`

func TestParser_RSS(t *testing.T) {
	p := NewParser(nil, 0, false)

	entries, err := p.Parse(context.Background(), []byte(rssDoc), FormatRSS)
	if err != nil {
		t.Fatalf("Failed to parse RSS: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries (item without link skipped), got %d", len(entries))
	}

	first := entries[0]
	if first.URL != "https://example.com/politica/primera-noticia" {
		t.Errorf("Unexpected URL: %s", first.URL)
	}
	if first.Title != "Primera noticia" {
		t.Errorf("Unexpected title: %q", first.Title)
	}
	if first.PublishedRaw != "Fri, 01 Mar 2024 10:00:00 +0100" {
		t.Errorf("PublishedRaw should carry the source-native string, got %q", first.PublishedRaw)
	}
	if first.SectionHint != "Política" {
		t.Errorf("Expected category as section hint, got %q", first.SectionHint)
	}

	if entries[1].PublishedRaw != "" {
		t.Errorf("Item without pubDate should have empty PublishedRaw, got %q", entries[1].PublishedRaw)
	}
}

func TestParser_AtomUpdatedFallback(t *testing.T) {
	p := NewParser(nil, 0, false)

	entries, err := p.Parse(context.Background(), []byte(atomDoc), FormatAtom)
	if err != nil {
		t.Fatalf("Failed to parse Atom: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].PublishedRaw != "2024-03-01T10:00:00Z" {
		t.Errorf("Expected <updated> fallback, got %q", entries[0].PublishedRaw)
	}
	if entries[0].URL != "https://example.com/cultura/entrada" {
		t.Errorf("Unexpected URL: %s", entries[0].URL)
	}
}

func TestParser_UnknownHintDetectsFeed(t *testing.T) {
	p := NewParser(nil, 0, false)

	entries, err := p.Parse(context.Background(), []byte(rssDoc), FormatUnknown)
	if err != nil {
		t.Fatalf("Detection failed on RSS: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
}

func TestParser_EmptyFeed(t *testing.T) {
	doc := `<?xml version="1.0"?><rss version="2.0"><channel><title>Vacío</title></channel></rss>`

	p := NewParser(nil, 0, false)
	_, err := p.Parse(context.Background(), []byte(doc), FormatRSS)
	if !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Expected ErrEmptyResult, got %v", err)
	}
}

func TestParser_GarbageBody(t *testing.T) {
	p := NewParser(nil, 0, false)
	_, err := p.Parse(context.Background(), []byte("not xml at all"), FormatRSS)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestParser_EmptyBody(t *testing.T) {
	p := NewParser(nil, 0, false)
	_, err := p.Parse(context.Background(), nil, FormatRSS)
	if !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Expected ErrEmptyResult, got %v", err)
	}
}
