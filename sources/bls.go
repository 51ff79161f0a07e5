package sources

import (
	"fmt"
	"net/http"
	"strings"

	"econdata-collector/collect"
	"econdata-collector/config"
	"econdata-collector/models"
)

const defaultBLSBaseURL = "https://api.bls.gov/publicAPI/v2"

// BLS collects series from the Bureau of Labor Statistics timeseries API.
// One target is one series ID plus a year range; the payload carries one
// data point per period, so a single target yields a small ordered sequence
// of records.
type BLS struct {
	cfg      config.SourceConfig
	apiKey   string
	fieldMap models.FieldMap
}

// NewBLS builds the BLS collector from its catalog entry. The API key is
// optional; unregistered callers get a lower daily quota.
func NewBLS(cfg config.SourceConfig, apiKey string) *BLS {
	return &BLS{cfg: cfg, apiKey: apiKey, fieldMap: cfg.FieldMap()}
}

func (b *BLS) Name() string              { return b.cfg.Name }
func (b *BLS) FieldMap() models.FieldMap { return b.fieldMap }

// BuildRequest posts one series ID with the target's year range.
func (b *BLS) BuildRequest(t models.Target) models.RequestSpec {
	base := strings.TrimRight(b.cfg.BaseURL, "/")
	if base == "" {
		base = defaultBLSBaseURL
	}

	body := map[string]any{
		"seriesid":  []string{t.ID},
		"startyear": t.Param("startyear", ""),
		"endyear":   t.Param("endyear", ""),
	}
	if b.apiKey != "" {
		body["registrationkey"] = b.apiKey
	}

	return models.RequestSpec{
		Method: http.MethodPost,
		URL:    base + "/timeseries/data/",
		Body:   body,
	}
}

// CheckPayload enforces the application-level status BLS embeds inside an
// HTTP 200 response.
func (b *BLS) CheckPayload(payload any) error {
	root := asMap(payload)
	if root == nil {
		return fmt.Errorf("bls: payload is not an object")
	}
	status := pickStr(root, "status")
	if status != "REQUEST_SUCCEEDED" {
		msgs := make([]string, 0, 2)
		for _, m := range asSlice(root["message"]) {
			if s, ok := m.(string); ok {
				msgs = append(msgs, s)
			}
		}
		return fmt.Errorf("bls: status %q: %s", status, strings.Join(msgs, "; "))
	}
	return nil
}

// Extract flattens Results.series[].data[] into one row per period. BLS
// period codes M01-M12 become year-month dates; M13 and Q05 mark annual
// averages and keep the bare year.
func (b *BLS) Extract(payload any) ([]map[string]any, error) {
	root := asMap(payload)
	if root == nil {
		return nil, fmt.Errorf("bls: payload is not an object")
	}
	results := asMap(root["Results"])
	if results == nil {
		return nil, fmt.Errorf("bls: missing Results")
	}

	var rows []map[string]any
	for _, s := range asSlice(results["series"]) {
		series := asMap(s)
		if series == nil {
			continue
		}
		seriesID := pickStr(series, "seriesID", "seriesId")
		for _, d := range asSlice(series["data"]) {
			point := asMap(d)
			if point == nil {
				continue
			}
			year := pickStr(point, "year")
			period := pickStr(point, "period")
			rows = append(rows, map[string]any{
				"series_id":   seriesID,
				"year":        year,
				"period":      period,
				"period_name": pickStr(point, "periodName"),
				"value":       point["value"],
				"date":        blsPeriodDate(year, period),
			})
		}
	}
	return rows, nil
}

// Context tags every record with the target's series ID, which the payload
// repeats per series but not per data point.
func (b *BLS) Context(t models.Target) collect.Context {
	return collect.Context{"target_series": models.StringValue(t.ID)}
}

func blsPeriodDate(year, period string) string {
	if len(period) == 3 && period[0] == 'M' && period != "M13" {
		return year + "-" + period[1:]
	}
	if len(period) == 3 && period[0] == 'Q' && period != "Q05" {
		switch period {
		case "Q01":
			return year + "-01"
		case "Q02":
			return year + "-04"
		case "Q03":
			return year + "-07"
		case "Q04":
			return year + "-10"
		}
	}
	return year
}
