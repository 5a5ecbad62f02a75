package source

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/lysyi3m/cima-comb/app/content"
	"gopkg.in/yaml.v3"
)

// DefaultGenreSelectors is tried in order on detail pages; the first selector
// with any match wins.
var DefaultGenreSelectors = []string{
	"a[href*='genre']",
	"div.MovieInfo__Details__item strong:contains('النوع') + span a",
	"div.info-list a[href*='genre']",
	"div.category-list a",
}

const (
	hintMovie  = string(content.CategoryMovie)
	hintSeries = string(content.CategorySeries)
)

var builtinSources = []Source{
	{Name: "Wecima", URL: "https://wecima.video", Extractor: "wecima", CategoryHint: content.HintMixed},
	{Name: "TopCinema", URL: "https://web6.topcinema.cam/recent/", Extractor: "topcinema", CategoryHint: content.HintMixed},
	{Name: "CimaClub", URL: "https://cimaclub.day", Extractor: "cimaclub", CategoryHint: content.HintMixed},
	{Name: "TukTukCima", URL: "https://tuktukcima.art/recent/", Extractor: "tuktukcima", CategoryHint: content.HintMixed},
	{Name: "EgyBest", URL: "https://egy.onl/recent/", Extractor: "egybest", CategoryHint: content.HintMixed},
	{Name: "MyCima", URL: "https://mycima.video", Extractor: "mycima", CategoryHint: content.HintMixed},
	{Name: "Akoam_Movies", URL: "https://akw.onl/movies/", Extractor: "akoam", CategoryHint: hintMovie},
	{Name: "Akoam_Series", URL: "https://akw.onl/series/", Extractor: "akoam", CategoryHint: hintSeries},
	{Name: "Akoam_TV", URL: "https://akw.onl/tv/", Extractor: "akoam", CategoryHint: hintSeries},
	{Name: "Shahid4u_Movies", URL: "https://shahed4uapp.com/page/movies/", Extractor: "shahid4u", CategoryHint: hintMovie},
	{Name: "Shahid4u_Series", URL: "https://shahed4uapp.com/page/series/", Extractor: "shahid4u", CategoryHint: hintSeries},
	{Name: "Aflamco_Movies", URL: "https://aflamco.cloud/%D8%A7%D9%81%D9%84%D8%A7%D9%85/", Extractor: "aflamco", CategoryHint: hintMovie},
	{Name: "Cima4u_Movies", URL: "https://cema4u.vip/category/%d8%a7%d9%81%d9%84%d8%a7%d9%81-%d8%a7%d8%ac%d9%86%d8%a8%d9%8a/", Extractor: "cima4u", CategoryHint: hintMovie},
	{Name: "Cima4u_Series", URL: "https://cema4u.vip/category/%d9%85%d8%b3%d9%84%d8%b3%d9%84%d8%a7%d8%aa-%d8%a7%d8%ac%d9%86%d8%a8%d9%8a/", Extractor: "cima4u", CategoryHint: hintSeries},
	{Name: "Fushaar", URL: "https://www.fushaar.com/?tlvaz", Extractor: "fushaar", CategoryHint: content.HintMixed},
	{Name: "Aflaam_Movies", URL: "https://aflaam.com/movies", Extractor: "aflaam", CategoryHint: hintMovie},
	{Name: "Aflaam_Series", URL: "https://aflaam.com/series", Extractor: "aflaam", CategoryHint: hintSeries},
	{Name: "EgyDead_Movies", URL: "https://egydead.video/category/%d8%a7%d9%81%d9%84%d8%a7%d9%81-%d8%a7%d8%ac%d9%86%d8%a8%d9%8a/", Extractor: "egydead", CategoryHint: hintMovie},
	{Name: "EgyDead_Series", URL: "https://egydead.video/series-category/%d9%85%d8%b3%d9%84%d8%b3%d9%84%d8%a7%d8%aa-%d8%a7%d8%ac%d9%86%d8%a8%d9%8a-1/", Extractor: "egydead", CategoryHint: hintSeries},
}

// Registry is immutable after construction. Accessors hand out copies, so it is
// safe for concurrent readers without locking.
type Registry struct {
	sources []Source
	byName  map[string]int
}

type registryFile struct {
	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	Name           string   `yaml:"name"`
	URL            string   `yaml:"url"`
	Extractor      string   `yaml:"extractor"`
	CategoryHint   string   `yaml:"category_hint"`
	GenreSelectors []string `yaml:"genre_selectors"`
	Enabled        *bool    `yaml:"enabled"`
}

// DefaultRegistry returns the built-in source table.
func DefaultRegistry() *Registry {
	sources := make([]Source, len(builtinSources))
	for i, s := range builtinSources {
		s.Enabled = true
		sources[i] = s
	}
	registry, err := NewRegistry(sources)
	if err != nil {
		panic(fmt.Sprintf("built-in source registry is invalid: %v", err))
	}
	return registry
}

// NewRegistry validates sources and fills in defaults.
func NewRegistry(sources []Source) (*Registry, error) {
	r := &Registry{
		sources: make([]Source, 0, len(sources)),
		byName:  make(map[string]int, len(sources)),
	}

	for i, s := range sources {
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate source name: %s", s.Name)
		}
		if s.CategoryHint == "" {
			s.CategoryHint = content.HintMixed
		}
		if len(s.GenreSelectors) == 0 {
			s.GenreSelectors = DefaultGenreSelectors
		}
		r.byName[s.Name] = len(r.sources)
		r.sources = append(r.sources, s)
	}

	return r, nil
}

// LoadRegistry reads a YAML registry file. A missing file yields the built-in registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("Sources file not found, using built-in registry", "path", path)
		return DefaultRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	sources := make([]Source, 0, len(file.Sources))
	for _, entry := range file.Sources {
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		sources = append(sources, Source{
			Name:           entry.Name,
			URL:            entry.URL,
			Extractor:      entry.Extractor,
			CategoryHint:   entry.CategoryHint,
			GenreSelectors: entry.GenreSelectors,
			Enabled:        enabled,
		})
	}

	registry, err := NewRegistry(sources)
	if err != nil {
		return nil, fmt.Errorf("invalid sources file %s: %w", path, err)
	}
	return registry, nil
}

func (r *Registry) Sources() []Source {
	sourcesCopy := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		sourcesCopy = append(sourcesCopy, s.clone())
	}
	return sourcesCopy
}

func (r *Registry) Enabled() []Source {
	enabled := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		if s.Enabled {
			enabled = append(enabled, s.clone())
		}
	}
	return enabled
}

func (r *Registry) Get(name string) (Source, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Source{}, false
	}
	return r.sources[i].clone(), true
}

func (r *Registry) Count() int {
	return len(r.sources)
}

func (s Source) clone() Source {
	s.GenreSelectors = slices.Clone(s.GenreSelectors)
	return s
}

// ExtractFunc returns the extraction function registered for s.
func (s Source) ExtractFunc() Extractor {
	return Extractors[s.Extractor]
}

func validateSource(s Source) error {
	requiredFields := map[string]string{
		"source name": s.Name,
		"source URL":  s.URL,
		"extractor":   s.Extractor,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if _, ok := Extractors[s.Extractor]; !ok {
		return fmt.Errorf("unknown extractor '%s' for source %s", s.Extractor, s.Name)
	}

	return nil
}
