package content

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakePageGetter struct {
	html string
	err  error
}

func (g *fakePageGetter) GetPage(_ context.Context, _ string) (string, error) {
	return g.html, g.err
}

const articleHTML = `<!DOCTYPE html>
<html lang="es">
<head>
	<title>Gran noticia | El Diario</title>
	<meta property="og:title" content="Gran noticia">
	<meta name="description" content="Un resumen de la noticia.">
	<meta name="author" content="Ana García">
	<meta name="author" content="Luis Pérez">
	<meta property="article:published_time" content="2024-03-01T10:00:00+01:00">
</head>
<body>
	<article>
		<h1>Gran noticia</h1>
		<p>Primer párrafo de la noticia con suficiente texto como para que el
		extractor de contenido lo considere cuerpo del artículo y no ruido de
		navegación o pie de página.</p>
		<p>Segundo párrafo que amplía los detalles de lo ocurrido y da contexto
		adicional a los lectores interesados en el asunto.</p>
	</article>
</body>
</html>`

func TestExtractMeta(t *testing.T) {
	meta, err := ExtractMeta(articleHTML)
	if err != nil {
		t.Fatalf("ExtractMeta failed: %v", err)
	}

	if !strings.Contains(meta.Title, "Gran noticia") {
		t.Errorf("Unexpected title: %q", meta.Title)
	}
	if meta.Summary != "Un resumen de la noticia." {
		t.Errorf("Unexpected summary: %q", meta.Summary)
	}
	if !reflect.DeepEqual(meta.Authors, []string{"Ana García", "Luis Pérez"}) {
		t.Errorf("Unexpected authors: %v", meta.Authors)
	}
	if meta.PublishedRaw != "2024-03-01T10:00:00+01:00" {
		t.Errorf("Unexpected published string: %q", meta.PublishedRaw)
	}
	if !strings.Contains(meta.Text, "Primer párrafo") {
		t.Errorf("Body text missing from extraction: %q", meta.Text)
	}
}

func TestExtractMeta_TwitterHandleIsNotAByline(t *testing.T) {
	html := `<html><head>
		<title>Nota</title>
		<meta name="twitter:creator" content="@eldiario">
	</head><body><p>Texto.</p></body></html>`

	meta, err := ExtractMeta(html)
	if err != nil {
		t.Fatalf("ExtractMeta failed: %v", err)
	}
	if len(meta.Authors) != 0 {
		t.Errorf("Handles should be discarded, got %v", meta.Authors)
	}
}

func TestExtractMeta_TimeElementFallback(t *testing.T) {
	html := `<html><head><title>Nota</title></head>
	<body><article>
		<time datetime="2024-03-01T10:00:00Z">1 de marzo</time>
		<p>Texto de la nota.</p>
	</article></body></html>`

	meta, err := ExtractMeta(html)
	if err != nil {
		t.Fatalf("ExtractMeta failed: %v", err)
	}
	if meta.PublishedRaw != "2024-03-01T10:00:00Z" {
		t.Errorf("Expected datetime attribute fallback, got %q", meta.PublishedRaw)
	}
}

func TestExtractMeta_TitleFallsBackToTitleTag(t *testing.T) {
	html := `<html><head><title>Solo el title</title></head><body></body></html>`

	meta, err := ExtractMeta(html)
	if err != nil {
		t.Fatalf("ExtractMeta failed: %v", err)
	}
	if !strings.Contains(meta.Title, "Solo el title") {
		t.Errorf("Expected <title> fallback, got %q", meta.Title)
	}
}

func TestExtractor_FetchArticlePropagatesFetchError(t *testing.T) {
	e := NewExtractor(&fakePageGetter{err: errors.New("connection refused")})

	_, err := e.FetchArticle(context.Background(), "https://example.com/nota")
	if err == nil {
		t.Fatal("Expected an error when the page fetch fails")
	}
}

func TestExtractor_FetchArticle(t *testing.T) {
	e := NewExtractor(&fakePageGetter{html: articleHTML})

	meta, err := e.FetchArticle(context.Background(), "https://example.com/nota")
	if err != nil {
		t.Fatalf("FetchArticle failed: %v", err)
	}
	if meta.Summary != "Un resumen de la noticia." {
		t.Errorf("Unexpected summary: %q", meta.Summary)
	}
}
