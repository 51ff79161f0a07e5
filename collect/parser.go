package collect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"econdata-collector/metrics"
	"econdata-collector/models"
	"econdata-collector/utils"
)

// Context supplies values that are constant across one parsed batch, such
// as geographic identifiers already known from the target but absent from
// the payload itself.
type Context map[string]models.Value

// ParseWarning records a single field that failed type coercion. Warnings
// are non-fatal: the field becomes null and the record is still emitted.
type ParseWarning struct {
	Field  string
	Raw    string
	Reason string
}

// Parser converts extracted payload rows into flat, typed records using a
// declared field-mapping table. It holds no per-parse state, so parsing
// the same payload twice yields identical records.
type Parser struct {
	source  string
	logger  *utils.Logger
	metrics *metrics.Set
	now     func() time.Time
}

// NewParser builds a parser that stamps records with the given source tag.
func NewParser(source string, logger *utils.Logger, set *metrics.Set) *Parser {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Parser{source: source, logger: logger, metrics: set, now: time.Now}
}

// Parse maps each row to one record. For every declared field the raw value
// is looked up by its external name; absent values and configured missing
// sentinels become null, coercion failures become null with a warning. An
// empty row set produces an empty slice, not an error.
func (p *Parser) Parse(rows []map[string]any, fm models.FieldMap, ctx Context) ([]models.Record, []ParseWarning) {
	records := make([]models.Record, 0, len(rows))
	var warnings []ParseWarning
	collectedAt := p.now().UTC()
	sentinels := sentinelSet(fm.Sentinels)

	for _, row := range rows {
		rec := models.Record{
			DataSource:  p.source,
			CollectedAt: collectedAt,
			Fields:      make(map[string]models.Value, len(fm.Fields)+len(ctx)),
		}
		for k, v := range ctx {
			rec.Fields[k] = v
		}

		for _, f := range fm.Fields {
			raw, ok := row[f.External]
			if !ok {
				rec.Fields[f.Internal] = models.NullValue(f.Kind)
				continue
			}
			text := strings.TrimSpace(rawString(raw))
			if _, missing := sentinels[text]; missing {
				rec.Fields[f.Internal] = models.NullValue(f.Kind)
				continue
			}

			val, err := coerce(raw, text, f.Kind)
			if err != nil {
				rec.Fields[f.Internal] = models.NullValue(f.Kind)
				warnings = append(warnings, ParseWarning{Field: f.Internal, Raw: text, Reason: err.Error()})
				p.logger.Warn("field %q: cannot coerce %q to %s: %v", f.Internal, text, f.Kind, err)
				continue
			}
			rec.Fields[f.Internal] = val
		}

		records = append(records, rec)
	}

	p.metrics.AddRecordsParsed(p.source, len(records))
	p.metrics.AddParseWarnings(p.source, len(warnings))
	return records, warnings
}

func sentinelSet(sentinels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		set[s] = struct{}{}
	}
	return set
}

// rawString renders a decoded JSON value as text for sentinel matching and
// string coercion.
func rawString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func coerce(raw any, text string, kind models.Kind) (models.Value, error) {
	switch kind {
	case models.KindNumber:
		if f, ok := raw.(float64); ok {
			return models.NumberValue(f), nil
		}
		cleaned := strings.ReplaceAll(text, ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return models.Value{}, fmt.Errorf("not a number")
		}
		return models.NumberValue(f), nil
	case models.KindDate:
		t, err := parseDateFlexible(text)
		if err != nil {
			return models.Value{}, err
		}
		return models.DateValue(t), nil
	default:
		return models.StringValue(text), nil
	}
}

// parseDateFlexible accepts the period formats the statistical APIs emit:
// full RFC 3339 timestamps, plain dates, year-month and bare years.
func parseDateFlexible(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", s)
}
