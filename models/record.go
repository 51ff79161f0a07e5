package models

import (
	"encoding/json"
	"time"
)

// Kind declares the target type a mapped field is coerced to.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
)

// String returns the catalog spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Value is one typed cell of a Record. A Value with Null set carries no
// data; numeric fields that failed coercion are null, never zero.
type Value struct {
	Kind Kind
	Null bool
	Str  string
	Num  float64
	Date time.Time
}

func NullValue(kind Kind) Value   { return Value{Kind: kind, Null: true} }
func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

// Equal reports whether two values carry the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Null != o.Null {
		return false
	}
	if v.Null {
		return true
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindDate:
		return v.Date.Equal(o.Date)
	default:
		return v.Str == o.Str
	}
}

// MarshalJSON renders nulls as JSON null, dates as RFC 3339 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Null {
		return []byte("null"), nil
	}
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindDate:
		return json.Marshal(v.Date.Format(time.RFC3339))
	default:
		return json.Marshal(v.Str)
	}
}

// Record is one flat, typed output record ready for persistence. Every
// record carries its data source tag and the collection timestamp.
type Record struct {
	DataSource  string
	CollectedAt time.Time
	Fields      map[string]Value
}

// Field maps one external payload key to an internal name and kind.
type Field struct {
	External string
	Internal string
	Kind     Kind
}

// FieldMap is the declared mapping table for one data source.
type FieldMap struct {
	Fields    []Field
	Sentinels []string
}

// Target is one opaque unit of fetch work: a series ID, a county FIPS
// code, a year range. Params carries source-specific query values.
type Target struct {
	ID     string
	Params map[string]string
}

// Param returns the named parameter or the fallback when unset.
func (t Target) Param(key, fallback string) string {
	if v, ok := t.Params[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Status classifies a fetch outcome.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

// RawResponse is the unprocessed result of a single fetch: consumed once
// by the parser, then discarded.
type RawResponse struct {
	Status     Status
	Payload    any
	HTTPStatus int
	Latency    time.Duration
	Err        error
}

// OK reports whether the fetch ultimately succeeded.
func (r RawResponse) OK() bool { return r.Status == StatusSuccess }

// RequestSpec describes one outbound HTTP call.
type RequestSpec struct {
	Method  string
	URL     string
	Query   map[string]string
	Headers map[string]string
	Body    any
}
