package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"econdata-collector/models"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const validCatalog = `
sources:
  - name: bls
    base_url: https://api.bls.gov/publicAPI/v2
    table: bls_timeseries
    rate_interval: 1s
    max_retries: 5
    targets:
      - id: CUUR0000SA0
        params: {startyear: "2022", endyear: "2024"}
    fields:
      - {external: value, internal: value, kind: number}
      - {external: date, internal: period_start, kind: date}
  - name: census
    type: census
    fields:
      - {external: NAME, internal: area_name}
`

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, validCatalog))
	require.NoError(t, err)
	require.Len(t, cat.Sources, 2)

	bls, ok := cat.Source("bls")
	require.True(t, ok)
	require.Equal(t, time.Second, bls.RateInterval)
	require.Equal(t, 5, bls.MaxRetries)
	require.Equal(t, "bls", bls.Type, "type defaults to the source name")
	require.Equal(t, DefaultSentinels, bls.Sentinels)

	targets := bls.TargetList()
	require.Len(t, targets, 1)
	require.Equal(t, "CUUR0000SA0", targets[0].ID)
	require.Equal(t, "2022", targets[0].Params["startyear"])

	_, ok = cat.Source("bea")
	require.False(t, ok)
}

func TestLoadCatalogAppliesDefaults(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, validCatalog))
	require.NoError(t, err)

	census, ok := cat.Source("census")
	require.True(t, ok)
	require.Equal(t, 500*time.Millisecond, census.RateInterval)
	require.Equal(t, 3, census.MaxRetries)
}

func TestLoadCatalogRejectsUnknownKind(t *testing.T) {
	path := writeCatalog(t, `
sources:
  - name: bls
    fields:
      - {external: value, internal: value, kind: decimal}
`)
	_, err := LoadCatalog(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field kind")
}

func TestLoadCatalogRejectsMissingFields(t *testing.T) {
	_, err := LoadCatalog(writeCatalog(t, "sources:\n  - name: bls\n"))
	require.Error(t, err)

	_, err = LoadCatalog(writeCatalog(t, "sources: []\n"))
	require.Error(t, err)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestFieldMapConversion(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, validCatalog))
	require.NoError(t, err)

	bls, _ := cat.Source("bls")
	fm := bls.FieldMap()
	require.Len(t, fm.Fields, 2)
	require.Equal(t, models.KindNumber, fm.Fields[0].Kind)
	require.Equal(t, "period_start", fm.Fields[1].Internal)
	require.Equal(t, models.KindDate, fm.Fields[1].Kind)
	require.Equal(t, DefaultSentinels, fm.Sentinels)
}
