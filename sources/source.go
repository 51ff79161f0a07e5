package sources

import (
	"fmt"

	"econdata-collector/collect"
	"econdata-collector/config"
)

// New builds the collector for a catalog entry based on its declared type.
func New(cfg config.SourceConfig, apiKey string) (collect.Source, error) {
	switch cfg.Type {
	case "bls":
		return NewBLS(cfg, apiKey), nil
	case "census":
		return NewCensus(cfg, apiKey), nil
	case "bea":
		return NewBEA(cfg, apiKey), nil
	default:
		return nil, fmt.Errorf("sources: unknown source type %q", cfg.Type)
	}
}
