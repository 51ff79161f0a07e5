package sources

import (
	"fmt"
	"net/http"
	"strings"

	"econdata-collector/collect"
	"econdata-collector/config"
	"econdata-collector/models"
)

const defaultCensusBaseURL = "https://api.census.gov/data/2022/acs/acs5"

// Census collects tabular statistics from the Census Bureau data API
// (ACS and County Business Patterns). One target is one geography; the
// payload is an array of arrays whose first row is the header.
type Census struct {
	cfg      config.SourceConfig
	apiKey   string
	fieldMap models.FieldMap
}

// NewCensus builds the Census collector from its catalog entry.
func NewCensus(cfg config.SourceConfig, apiKey string) *Census {
	return &Census{cfg: cfg, apiKey: apiKey, fieldMap: cfg.FieldMap()}
}

func (c *Census) Name() string              { return c.cfg.Name }
func (c *Census) FieldMap() models.FieldMap { return c.fieldMap }

// BuildRequest queries the configured variables for one geography. The
// target ID is the FIPS code used in the `for` clause.
func (c *Census) BuildRequest(t models.Target) models.RequestSpec {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if base == "" {
		base = defaultCensusBaseURL
	}

	query := map[string]string{
		"get": t.Param("get", "NAME"),
		"for": t.Param("for", "county:"+t.ID),
	}
	if in := t.Param("in", ""); in != "" {
		query["in"] = in
	}
	if c.apiKey != "" {
		query["key"] = c.apiKey
	}

	return models.RequestSpec{
		Method: http.MethodGet,
		URL:    base,
		Query:  query,
	}
}

// CheckPayload is a no-op: the Census API signals failure through HTTP
// status codes, not an embedded status field.
func (c *Census) CheckPayload(any) error { return nil }

// Extract zips the header row with each data row. A header-only payload
// (geography with no data) yields zero rows, which is not an error.
func (c *Census) Extract(payload any) ([]map[string]any, error) {
	table := asSlice(payload)
	if table == nil {
		return nil, fmt.Errorf("census: payload is not an array")
	}
	if len(table) == 0 {
		return nil, nil
	}

	headerRow := asSlice(table[0])
	if headerRow == nil {
		return nil, fmt.Errorf("census: header row is not an array")
	}
	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		s, ok := h.(string)
		if !ok {
			return nil, fmt.Errorf("census: non-string header at column %d", i)
		}
		headers[i] = s
	}

	rows := make([]map[string]any, 0, len(table)-1)
	for _, r := range table[1:] {
		cells := asSlice(r)
		if cells == nil {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, cell := range cells {
			if i < len(headers) {
				row[headers[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Context tags every record with the queried geography.
func (c *Census) Context(t models.Target) collect.Context {
	return collect.Context{"geo_id": models.StringValue(t.ID)}
}
