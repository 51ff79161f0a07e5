package sources

import (
	"fmt"
	"net/http"
	"strings"

	"econdata-collector/collect"
	"econdata-collector/config"
	"econdata-collector/models"
)

const defaultBEABaseURL = "https://apps.bea.gov/api/data"

// BEA collects regional accounts data from the Bureau of Economic
// Analysis API. One target is one GeoFips code plus table and year params.
type BEA struct {
	cfg      config.SourceConfig
	apiKey   string
	fieldMap models.FieldMap
}

// NewBEA builds the BEA collector from its catalog entry. The BEA API
// requires a registered UserID.
func NewBEA(cfg config.SourceConfig, apiKey string) *BEA {
	return &BEA{cfg: cfg, apiKey: apiKey, fieldMap: cfg.FieldMap()}
}

func (b *BEA) Name() string              { return b.cfg.Name }
func (b *BEA) FieldMap() models.FieldMap { return b.fieldMap }

func (b *BEA) BuildRequest(t models.Target) models.RequestSpec {
	base := strings.TrimRight(b.cfg.BaseURL, "/")
	if base == "" {
		base = defaultBEABaseURL
	}

	return models.RequestSpec{
		Method: http.MethodGet,
		URL:    base,
		Query: map[string]string{
			"UserID":       b.apiKey,
			"method":       "GetData",
			"datasetname":  t.Param("dataset", "Regional"),
			"TableName":    t.Param("table", "CAINC1"),
			"LineCode":     t.Param("linecode", "1"),
			"GeoFips":      t.ID,
			"Year":         t.Param("year", "LAST5"),
			"ResultFormat": "JSON",
		},
	}
}

// CheckPayload surfaces the error object BEA embeds in HTTP 200 responses.
func (b *BEA) CheckPayload(payload any) error {
	results := asMap(asMap(asMap(payload)["BEAAPI"])["Results"])
	if results == nil {
		return fmt.Errorf("bea: missing BEAAPI.Results")
	}
	if errObj := asMap(results["Error"]); errObj != nil {
		return fmt.Errorf("bea: api error: %s",
			pickStr(errObj, "APIErrorDescription", "ErrorDetail", "APIErrorCode"))
	}
	return nil
}

// Extract returns BEAAPI.Results.Data rows as-is; the field map selects
// and coerces the columns of interest (DataValue, TimePeriod, GeoName...).
func (b *BEA) Extract(payload any) ([]map[string]any, error) {
	results := asMap(asMap(asMap(payload)["BEAAPI"])["Results"])
	if results == nil {
		return nil, fmt.Errorf("bea: missing BEAAPI.Results")
	}

	var rows []map[string]any
	for _, d := range asSlice(results["Data"]) {
		if row := asMap(d); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Context tags every record with the queried GeoFips code.
func (b *BEA) Context(t models.Target) collect.Context {
	return collect.Context{"geo_fips": models.StringValue(t.ID)}
}
