package feeds

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"strings"
)

// maxIndexDepth bounds sitemap-index recursion. Depth 0 is the document
// handed to Parse; an index may reference child sitemaps (depth 1) which may
// themselves be indexes (depth 2). Anything deeper — including an index
// referencing itself — stops with ErrRecursionLimit.
const maxIndexDepth = 2

// parseSitemap parses a plain <urlset> sitemap. Each <url><loc> becomes a
// CandidateEntry; <lastmod> carries over as the raw published string.
// Unknown elements are ignored.
func (p *Parser) parseSitemap(body []byte) ([]CandidateEntry, error) {
	var set urlSet
	decoder := xml.NewDecoder(bytes.NewReader(body))

	if err := decoder.Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: decode sitemap: %v", ErrMalformed, err)
	}

	entries := make([]CandidateEntry, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Location)
		if loc == "" {
			continue
		}
		entries = append(entries, CandidateEntry{
			URL:          loc,
			PublishedRaw: strings.TrimSpace(u.LastMod),
		})
		if p.maxEntries > 0 && len(entries) >= p.maxEntries {
			break
		}
	}

	if len(entries) == 0 {
		return nil, ErrEmptyResult
	}
	return entries, nil
}

// parseSitemapIndex parses a <sitemapindex> and recurses into each child
// sitemap through the fetcher. Child failures are skipped, not fatal; the
// aggregate fails only when no child yields an entry. Exceeding the depth
// bound returns the entries collected so far together with ErrRecursionLimit.
func (p *Parser) parseSitemapIndex(ctx context.Context, body []byte, depth int) ([]CandidateEntry, error) {
	var index sitemapIndex
	decoder := xml.NewDecoder(bytes.NewReader(body))

	if err := decoder.Decode(&index); err != nil {
		return nil, fmt.Errorf("%w: decode sitemap index: %v", ErrMalformed, err)
	}

	if len(index.Sitemaps) == 0 {
		return nil, ErrEmptyResult
	}

	var entries []CandidateEntry
	var limitHit bool

	for _, ref := range index.Sitemaps {
		loc := strings.TrimSpace(ref.Location)
		if loc == "" {
			continue
		}

		if depth+1 > maxIndexDepth {
			limitHit = true
			break
		}

		outcome := p.getter.Fetch(ctx, loc)
		if !outcome.OK() {
			if p.verbose {
				log.Printf("Parser: skipping child sitemap %s: %v", loc, outcome.Err)
			}
			continue
		}

		var child []CandidateEntry
		var err error
		if looksLikeSitemapIndex(outcome.Body) {
			child, err = p.parseSitemapIndex(ctx, outcome.Body, depth+1)
		} else {
			child, err = p.parseSitemap(outcome.Body)
		}
		if err != nil && len(child) == 0 {
			if errors.Is(err, ErrRecursionLimit) {
				limitHit = true
			}
			if p.verbose {
				log.Printf("Parser: child sitemap %s yielded nothing: %v", loc, err)
			}
			continue
		}
		if err != nil && errors.Is(err, ErrRecursionLimit) {
			limitHit = true
		}

		entries = append(entries, child...)
		if p.maxEntries > 0 && len(entries) >= p.maxEntries {
			entries = entries[:p.maxEntries]
			break
		}
	}

	if limitHit {
		return entries, ErrRecursionLimit
	}
	if len(entries) == 0 {
		return nil, ErrEmptyResult
	}
	return entries, nil
}

// looksLikeSitemapIndex peeks at the leading bytes the way a content
// sniffer would, so an index child that is itself an index takes the
// recursive path.
func looksLikeSitemapIndex(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<sitemapindex"))
}

// looksLikeHTML reports whether a discovery endpoint served an HTML page
// instead of XML. Such responses classify as malformed rather than being
// fed to the XML decoder.
func looksLikeHTML(body []byte) bool {
	head := bytes.TrimLeft(body, " \t\r\n")
	if len(head) > 256 {
		head = head[:256]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html"))
}

// XML structures for sitemap documents. Extra attributes and elements on
// the wire are ignored by the decoder.

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Location   string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Location string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
}
