package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"news-ingest/pkg/feeds"
)

const configPathEnv = "NEWS_INGEST_CONFIG"

// DiscoveryEndpoint is one URL that enumerates article URLs for a source,
// tagged with its expected document format.
type DiscoveryEndpoint struct {
	URL    string           `yaml:"url"`
	Format feeds.FormatHint `yaml:"format"`
}

// SourceDescriptor is the static per-source configuration. Created once at
// load time and shared read-only by every pipeline instance.
type SourceDescriptor struct {
	ID          string              `yaml:"id"`
	DisplayName string              `yaml:"displayName"`
	BaseURL     string              `yaml:"baseUrl"`
	Endpoints   []DiscoveryEndpoint `yaml:"discoveryEndpoints"`
	Enabled     bool                `yaml:"enabled"`
}

// Slug returns the source name in output-filename form.
func (s SourceDescriptor) Slug() string {
	slug := strings.ToLower(s.DisplayName)
	slug = strings.ReplaceAll(slug, " ", "_")
	return slug
}

// FetchSettings holds the retry and politeness knobs applied to every
// source's fetcher.
type FetchSettings struct {
	TimeoutSeconds        int `yaml:"timeoutSeconds"`
	MaxRetries            int `yaml:"maxRetries"`
	BackoffBaseMS         int `yaml:"backoffBaseMs"`
	BackoffCapMS          int `yaml:"backoffCapMs"`
	RequestDelayMS        int `yaml:"requestDelayMs"`
	MaxEntriesPerEndpoint int `yaml:"maxEntriesPerEndpoint"`
}

// Config is the full static configuration: pipeline knobs plus the ordered
// source list.
type Config struct {
	Fetch          FetchSettings      `yaml:"fetch"`
	Concurrency    int                `yaml:"concurrency"`
	LocalePatterns []string           `yaml:"localeDatePatterns"`
	Sources        []SourceDescriptor `yaml:"sources"`
}

// Store gives read-only access to the loaded source descriptors.
type Store struct {
	cfg Config
}

// Load reads YAML configuration from path (or $NEWS_INGEST_CONFIG, or
// compiled-in defaults when neither is set) and returns an immutable store.
func Load(path string) (*Store, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return nil, fmt.Errorf("config: cannot parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	} else {
		log.Printf("config: no config file given, using built-in sources")
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Store{cfg: cfg}, nil
}

// Settings returns the pipeline knobs.
func (s *Store) Settings() (FetchSettings, int, []string) {
	return s.cfg.Fetch, s.cfg.Concurrency, s.cfg.LocalePatterns
}

// Sources returns every configured source in file order.
func (s *Store) Sources() []SourceDescriptor {
	return s.cfg.Sources
}

// Select returns the enabled sources matching the requested ids. An empty
// request selects every enabled source. Unknown ids are reported so a typo
// does not silently run nothing.
func (s *Store) Select(ids []string) ([]SourceDescriptor, error) {
	if len(ids) == 0 {
		var out []SourceDescriptor
		for _, src := range s.cfg.Sources {
			if src.Enabled {
				out = append(out, src)
			}
		}
		return out, nil
	}

	byID := make(map[string]SourceDescriptor, len(s.cfg.Sources))
	for _, src := range s.cfg.Sources {
		byID[src.ID] = src
	}

	var out []SourceDescriptor
	for _, id := range ids {
		src, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("config: unknown source id %q", id)
		}
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out, nil
}

func validate(cfg Config) error {
	seen := make(map[string]bool)
	for _, src := range cfg.Sources {
		if src.ID == "" {
			return fmt.Errorf("config: source with empty id (name %q)", src.DisplayName)
		}
		if seen[src.ID] {
			return fmt.Errorf("config: duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
		if len(src.Endpoints) == 0 {
			return fmt.Errorf("config: source %q has no discovery endpoints", src.ID)
		}
	}
	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Fetch.TimeoutSeconds > 0 {
		base.Fetch.TimeoutSeconds = override.Fetch.TimeoutSeconds
	}
	if override.Fetch.MaxRetries > 0 {
		base.Fetch.MaxRetries = override.Fetch.MaxRetries
	}
	if override.Fetch.BackoffBaseMS > 0 {
		base.Fetch.BackoffBaseMS = override.Fetch.BackoffBaseMS
	}
	if override.Fetch.BackoffCapMS > 0 {
		base.Fetch.BackoffCapMS = override.Fetch.BackoffCapMS
	}
	if override.Fetch.RequestDelayMS > 0 {
		base.Fetch.RequestDelayMS = override.Fetch.RequestDelayMS
	}
	if override.Fetch.MaxEntriesPerEndpoint > 0 {
		base.Fetch.MaxEntriesPerEndpoint = override.Fetch.MaxEntriesPerEndpoint
	}
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	if len(override.LocalePatterns) > 0 {
		base.LocalePatterns = override.LocalePatterns
	}
	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Fetch: FetchSettings{
			TimeoutSeconds:        15,
			MaxRetries:            3,
			BackoffBaseMS:         500,
			BackoffCapMS:          30000,
			RequestDelayMS:        1000,
			MaxEntriesPerEndpoint: 50,
		},
		Concurrency: 4,
		// Day-first patterns for the Spanish sites the default set targets.
		LocalePatterns: []string{
			"02/01/2006",
			"02-01-2006",
			"2/1/2006",
			"02/01/2006 15:04",
		},
		Sources: []SourceDescriptor{
			{
				ID:          "el-pais",
				DisplayName: "El País",
				BaseURL:     "https://elpais.com",
				Enabled:     true,
				Endpoints: []DiscoveryEndpoint{
					{URL: "https://feeds.elpais.com/mrss-s/pages/ep/site/elpais.com/portada", Format: feeds.FormatRSS},
					{URL: "https://feeds.elpais.com/mrss-s/pages/ep/site/elpais.com/section/ultimas-noticias/portada", Format: feeds.FormatRSS},
				},
			},
			{
				ID:          "20minutos",
				DisplayName: "20minutos",
				BaseURL:     "https://www.20minutos.es",
				Enabled:     true,
				Endpoints: []DiscoveryEndpoint{
					{URL: "https://www.20minutos.es/sitemap-google-news.xml", Format: feeds.FormatSitemap},
					{URL: "https://www.20minutos.es/rss", Format: feeds.FormatRSS},
				},
			},
		},
	}
}
