package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"econdata-collector/collect"
	"econdata-collector/config"
	"econdata-collector/models"
	"econdata-collector/utils"
)

func fixtureSourceConfig() config.SourceConfig {
	return config.SourceConfig{
		Name: "bls",
		Fields: []config.FieldSpec{
			{External: "value", Internal: "value", Kind: "number"},
			{External: "date", Internal: "period_start", Kind: "date"},
			{External: "label", Internal: "label", Kind: "string"},
		},
	}
}

func newTestFixtureGenerator(t *testing.T) *FixtureGenerator {
	t.Helper()
	cfg := fixtureSourceConfig()
	logger := utils.NewLogger()
	return NewFixtureGenerator(cfg, collect.NewParser(cfg.Name, logger, nil), logger)
}

func TestFixtureGeneratorEmitsPeriodsPerTarget(t *testing.T) {
	gen := newTestFixtureGenerator(t)

	sum := gen.Collect(context.Background(), []models.Target{{ID: "CUUR0000SA0"}, {ID: "CES0000000001"}})

	require.Equal(t, 2, sum.Attempted)
	require.Equal(t, 2, sum.Succeeded)
	require.Empty(t, sum.Failures)
	require.Len(t, sum.Records, 2*periodsPerTarget)
	require.NotEmpty(t, sum.RunID)

	for _, rec := range sum.Records {
		require.Equal(t, "bls", rec.DataSource)
		require.True(t, rec.Fields["fixture"].Equal(models.StringValue("true")))
		require.False(t, rec.Fields["value"].Null)
		require.False(t, rec.Fields["period_start"].Null)
	}
}

func TestFixtureGeneratorIsDeterministicPerTarget(t *testing.T) {
	targets := []models.Target{{ID: "CUUR0000SA0"}}

	first := newTestFixtureGenerator(t).Collect(context.Background(), targets)
	second := newTestFixtureGenerator(t).Collect(context.Background(), targets)

	require.Len(t, second.Records, len(first.Records))
	for i := range first.Records {
		a, b := first.Records[i].Fields, second.Records[i].Fields
		require.Len(t, b, len(a))
		for name, v := range a {
			require.True(t, v.Equal(b[name]), "field %q differs between runs", name)
		}
	}
}

func TestFixtureGeneratorDifferentTargetsDiffer(t *testing.T) {
	gen := newTestFixtureGenerator(t)

	a := gen.Collect(context.Background(), []models.Target{{ID: "series-a"}})
	b := gen.Collect(context.Background(), []models.Target{{ID: "series-b"}})

	require.False(t, a.Records[0].Fields["value"].Equal(b.Records[0].Fields["value"]))
}

func TestFixtureGeneratorHonorsCancelledContext(t *testing.T) {
	gen := newTestFixtureGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := gen.Collect(ctx, []models.Target{{ID: "a"}, {ID: "b"}})

	require.Equal(t, 0, sum.Succeeded)
	require.Equal(t, 2, sum.Failed())
}
