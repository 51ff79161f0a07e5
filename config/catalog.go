package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"econdata-collector/models"
)

// DefaultSentinels are the missing-value markers shared by the statistical
// APIs: "-" and "(D)"/"(S)" mark suppressed or unavailable cells.
var DefaultSentinels = []string{"", "-", "(D)", "(S)", "(NA)", "N/A", "null"}

// TargetSpec is one catalog-declared unit of work for a source.
type TargetSpec struct {
	ID     string            `yaml:"id"`
	Params map[string]string `yaml:"params"`
}

// FieldSpec is one row of a source's field-mapping table.
type FieldSpec struct {
	External string `yaml:"external"`
	Internal string `yaml:"internal"`
	Kind     string `yaml:"kind"`
}

// SourceConfig declares everything the pipeline needs to collect one
// source: endpoint, table, rate limit, retry budget, sentinels, targets
// and the field-mapping table.
type SourceConfig struct {
	Name         string        `yaml:"name"`
	Type         string        `yaml:"type"`
	BaseURL      string        `yaml:"base_url"`
	Table        string        `yaml:"table"`
	RateInterval time.Duration `yaml:"rate_interval"`
	MaxRetries   int           `yaml:"max_retries"`
	Sentinels    []string      `yaml:"sentinels"`
	Targets      []TargetSpec  `yaml:"targets"`
	Fields       []FieldSpec   `yaml:"fields"`
}

// Catalog is the full set of configured sources.
type Catalog struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadCatalog reads and validates the YAML source catalog. An invalid
// field-mapping table is a configuration error and fails loudly.
func LoadCatalog(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	if len(c.Sources) == 0 {
		return Catalog{}, fmt.Errorf("catalog: %q declares no sources", path)
	}
	for i := range c.Sources {
		if err := c.Sources[i].validate(); err != nil {
			return Catalog{}, err
		}
	}
	return c, nil
}

// Source returns the named source config, if declared.
func (c Catalog) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

func (s *SourceConfig) validate() error {
	if s.Name == "" {
		return fmt.Errorf("catalog: source with empty name")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("catalog: source %q declares no fields", s.Name)
	}
	for _, f := range s.Fields {
		if f.External == "" || f.Internal == "" {
			return fmt.Errorf("catalog: source %q has a field with empty name", s.Name)
		}
		if _, err := parseKind(f.Kind); err != nil {
			return fmt.Errorf("catalog: source %q field %q: %w", s.Name, f.Internal, err)
		}
	}
	if s.RateInterval < 0 {
		return fmt.Errorf("catalog: source %q has negative rate_interval", s.Name)
	}
	if s.RateInterval == 0 {
		s.RateInterval = 500 * time.Millisecond
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 3
	}
	if s.Type == "" {
		s.Type = s.Name
	}
	if len(s.Sentinels) == 0 {
		s.Sentinels = DefaultSentinels
	}
	return nil
}

// FieldMap converts the catalog rows into the typed mapping table used by
// the parser. Kinds were validated at load time.
func (s SourceConfig) FieldMap() models.FieldMap {
	fm := models.FieldMap{Sentinels: s.Sentinels}
	for _, f := range s.Fields {
		kind, _ := parseKind(f.Kind)
		fm.Fields = append(fm.Fields, models.Field{
			External: f.External,
			Internal: f.Internal,
			Kind:     kind,
		})
	}
	return fm
}

// TargetList converts catalog target specs into pipeline targets.
func (s SourceConfig) TargetList() []models.Target {
	out := make([]models.Target, 0, len(s.Targets))
	for _, t := range s.Targets {
		out = append(out, models.Target{ID: t.ID, Params: t.Params})
	}
	return out
}

func parseKind(s string) (models.Kind, error) {
	switch s {
	case "", "string":
		return models.KindString, nil
	case "number":
		return models.KindNumber, nil
	case "date":
		return models.KindDate, nil
	default:
		return models.KindString, fmt.Errorf("unknown field kind %q", s)
	}
}
