package sources

import (
	"testing"

	"github.com/stretchr/testify/require"

	"econdata-collector/config"
	"econdata-collector/models"
)

func censusConfig() config.SourceConfig {
	return config.SourceConfig{
		Name: "census",
		Type: "census",
		Fields: []config.FieldSpec{
			{External: "NAME", Internal: "area_name", Kind: "string"},
			{External: "B01001_001E", Internal: "population", Kind: "number"},
		},
	}
}

func TestCensusExtractZipsHeaderAndRows(t *testing.T) {
	c := NewCensus(censusConfig(), "")
	payload := decode(t, `[
		["NAME","B01001_001E","state","county"],
		["Cook County, Illinois","5275541","17","031"],
		["Harris County, Texas","4835125","48","201"]
	]`)

	rows, err := c.Extract(payload)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Cook County, Illinois", rows[0]["NAME"])
	require.Equal(t, "5275541", rows[0]["B01001_001E"])
	require.Equal(t, "201", rows[1]["county"])
}

func TestCensusExtractHeaderOnlyYieldsNoRows(t *testing.T) {
	c := NewCensus(censusConfig(), "")

	rows, err := c.Extract(decode(t, `[["NAME","B01001_001E"]]`))
	require.NoError(t, err, "a geography with no data is not an error")
	require.Empty(t, rows)
}

func TestCensusExtractRejectsNonArrayPayload(t *testing.T) {
	c := NewCensus(censusConfig(), "")

	_, err := c.Extract(decode(t, `{"error":"unexpected"}`))
	require.Error(t, err)
}

func TestCensusBuildRequest(t *testing.T) {
	c := NewCensus(censusConfig(), "census-key")
	spec := c.BuildRequest(models.Target{
		ID:     "031",
		Params: map[string]string{"get": "NAME,B01001_001E", "in": "state:17"},
	})

	require.Equal(t, "GET", spec.Method)
	require.Equal(t, "NAME,B01001_001E", spec.Query["get"])
	require.Equal(t, "county:031", spec.Query["for"])
	require.Equal(t, "state:17", spec.Query["in"])
	require.Equal(t, "census-key", spec.Query["key"])
}
