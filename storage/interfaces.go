package storage

import "econdata-collector/models"

// BulkSink is the interface any warehouse backend must satisfy: append a
// batch of records durably under a logical table name. Append-only, no
// dedup guarantee; dedup, if needed, is a downstream concern.
type BulkSink interface {
	Append(table string, records []models.Record) error
	Close() error
}
