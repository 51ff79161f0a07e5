package sources

import (
	"testing"

	"github.com/stretchr/testify/require"

	"econdata-collector/config"
	"econdata-collector/models"
)

func beaConfig() config.SourceConfig {
	return config.SourceConfig{
		Name: "bea",
		Type: "bea",
		Fields: []config.FieldSpec{
			{External: "DataValue", Internal: "value", Kind: "number"},
			{External: "TimePeriod", Internal: "period_start", Kind: "date"},
		},
	}
}

const beaPayload = `{
	"BEAAPI": {
		"Results": {
			"Data": [
				{"GeoName": "Cook, IL", "TimePeriod": "2023", "DataValue": "78,609", "CL_UNIT": "dollars"},
				{"GeoName": "Cook, IL", "TimePeriod": "2022", "DataValue": "74,513", "CL_UNIT": "dollars"}
			]
		}
	}
}`

func TestBEAExtract(t *testing.T) {
	b := NewBEA(beaConfig(), "user-id")

	rows, err := b.Extract(decode(t, beaPayload))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "78,609", rows[0]["DataValue"])
	require.Equal(t, "2022", rows[1]["TimePeriod"])
}

func TestBEACheckPayloadSurfacesEmbeddedError(t *testing.T) {
	b := NewBEA(beaConfig(), "user-id")

	require.NoError(t, b.CheckPayload(decode(t, beaPayload)))

	err := b.CheckPayload(decode(t, `{
		"BEAAPI": {"Results": {"Error": {"APIErrorCode": "3", "APIErrorDescription": "Invalid UserID"}}}
	}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid UserID")

	require.Error(t, b.CheckPayload(decode(t, `{"unexpected": true}`)))
}

func TestBEABuildRequest(t *testing.T) {
	b := NewBEA(beaConfig(), "user-id")
	spec := b.BuildRequest(models.Target{
		ID:     "17031",
		Params: map[string]string{"table": "CAINC1", "linecode": "3"},
	})

	require.Equal(t, "GET", spec.Method)
	require.Equal(t, "user-id", spec.Query["UserID"])
	require.Equal(t, "GetData", spec.Query["method"])
	require.Equal(t, "CAINC1", spec.Query["TableName"])
	require.Equal(t, "17031", spec.Query["GeoFips"])
	require.Equal(t, "LAST5", spec.Query["Year"], "year range defaults to the last five")
}

func TestSourceFactoryRejectsUnknownType(t *testing.T) {
	_, err := New(config.SourceConfig{Name: "x", Type: "osm"}, "")
	require.Error(t, err)

	src, err := New(blsConfig(), "")
	require.NoError(t, err)
	require.Equal(t, "bls", src.Name())
}
