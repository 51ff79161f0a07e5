package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"econdata-collector/models"
)

// PostgresWriter appends collected records to warehouse tables. Tables are
// append-only: every batch lands with its collection timestamp and a
// collected_date column used for partition pruning downstream.
type PostgresWriter struct {
	db       *sql.DB
	migrated map[string]bool
}

// NewPostgresWriter opens a connection to the warehouse and returns a
// ready-to-use writer. Tables are created lazily on first append.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return &PostgresWriter{db: db, migrated: make(map[string]bool)}, nil
}

func (pw *PostgresWriter) migrate(table string) error {
	if pw.migrated[table] {
		return nil
	}

	quoted := pq.QuoteIdentifier(table)
	_, err := pw.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id             BIGSERIAL PRIMARY KEY,
			data_source    TEXT        NOT NULL,
			collected_at   TIMESTAMPTZ NOT NULL,
			collected_date DATE        NOT NULL,
			fields         JSONB       NOT NULL
		);

		CREATE INDEX IF NOT EXISTS %s ON %s(collected_date);
		CREATE INDEX IF NOT EXISTS %s ON %s(data_source);
	`,
		quoted,
		pq.QuoteIdentifier("idx_"+table+"_collected_date"), quoted,
		pq.QuoteIdentifier("idx_"+table+"_source"), quoted,
	))
	if err != nil {
		return fmt.Errorf("postgres: migrate %s: %w", table, err)
	}

	pw.migrated[table] = true
	return nil
}

// Append batch-inserts all records into the named table. Nothing is ever
// deleted or updated; re-running a collection appends a new batch under a
// fresh collection timestamp.
func (pw *PostgresWriter) Append(table string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := pw.migrate(table); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(table, records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(table string, batch []models.Record) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*4)

	for idx, rec := range batch {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("postgres: marshal fields: %w", err)
		}
		base := idx * 4
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		valueArgs = append(valueArgs,
			rec.DataSource, rec.CollectedAt, rec.CollectedAt.Format("2006-01-02"), fields)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (data_source, collected_at, collected_date, fields)
		VALUES %s
	`, pq.QuoteIdentifier(table), strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert into %s: %w", table, err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
