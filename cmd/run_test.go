package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"econdata-collector/config"
	"econdata-collector/models"
	"econdata-collector/utils"
)

type sinkCall struct {
	table   string
	records []models.Record
}

// recordingSink captures every Append so tests can assert call counts and
// batch contents. A non-nil err is returned from Append after recording.
type recordingSink struct {
	calls []sinkCall
	err   error
}

func (s *recordingSink) Append(table string, records []models.Record) error {
	s.calls = append(s.calls, sinkCall{
		table:   table,
		records: append([]models.Record(nil), records...),
	})
	return s.err
}

func (s *recordingSink) Close() error { return nil }

type loggedRun struct {
	sum *models.Summary
	err error
}

type recordingRunlog struct {
	entries []loggedRun
}

func (r *recordingRunlog) Record(sum *models.Summary, persistErr error) error {
	r.entries = append(r.entries, loggedRun{sum: sum, err: persistErr})
	return nil
}

func summaryWithRecords(source string, n int) *models.Summary {
	sum := &models.Summary{
		RunID:      source + "-run",
		DataSource: source,
		Attempted:  1,
		Succeeded:  1,
	}
	for i := 0; i < n; i++ {
		sum.Records = append(sum.Records, models.Record{
			DataSource: source,
			Fields:     map[string]models.Value{"value": models.NumberValue(float64(i))},
		})
	}
	return sum
}

func TestStoreSummariesAppendsOncePerRun(t *testing.T) {
	primary := &recordingSink{}
	fallback := &recordingSink{}
	runlog := &recordingRunlog{}

	selected := []config.SourceConfig{
		{Name: "bls", Table: "bls_timeseries"},
		{Name: "census"},
	}
	summaries := []*models.Summary{
		summaryWithRecords("bls", 3),
		summaryWithRecords("census", 2),
	}

	storeSummaries(primary, nil, fallback, runlog, selected, summaries, utils.NewLogger())

	require.Len(t, primary.calls, 2, "exactly one Append per completed run")
	require.Equal(t, "bls_timeseries", primary.calls[0].table)
	require.Equal(t, summaries[0].Records, primary.calls[0].records, "the batch is exactly the run's records")
	require.Equal(t, "census", primary.calls[1].table, "table falls back to the source name")
	require.Equal(t, summaries[1].Records, primary.calls[1].records)

	require.Empty(t, fallback.calls, "the fallback stays untouched while the primary works")
	require.Len(t, runlog.entries, 2)
	require.NoError(t, runlog.entries[0].err)
}

func TestStoreSummariesFallsBackWhenPrimaryFails(t *testing.T) {
	primary := &recordingSink{err: errors.New("postgres: insert into bls_timeseries: connection reset")}
	fallback := &recordingSink{}
	runlog := &recordingRunlog{}

	selected := []config.SourceConfig{{Name: "bls", Table: "bls_timeseries"}}
	summaries := []*models.Summary{summaryWithRecords("bls", 4)}

	storeSummaries(primary, nil, fallback, runlog, selected, summaries, utils.NewLogger())

	require.Len(t, primary.calls, 1)
	require.Len(t, fallback.calls, 1, "a failed primary append routes the batch to the fallback")
	require.Equal(t, summaries[0].Records, fallback.calls[0].records, "no record is lost on the way to the fallback")

	require.Len(t, runlog.entries, 1)
	require.ErrorContains(t, runlog.entries[0].err, "connection reset")
}

func TestStoreSummariesUnavailablePrimaryUsesFallback(t *testing.T) {
	fallback := &recordingSink{}
	runlog := &recordingRunlog{}
	downErr := errors.New("postgres: ping failed after retries")

	selected := []config.SourceConfig{{Name: "bea", Table: "bea_regional"}}
	summaries := []*models.Summary{summaryWithRecords("bea", 2)}

	storeSummaries(nil, downErr, fallback, runlog, selected, summaries, utils.NewLogger())

	require.Len(t, fallback.calls, 1)
	require.Equal(t, summaries[0].Records, fallback.calls[0].records)
	require.Len(t, runlog.entries, 1)
	require.ErrorContains(t, runlog.entries[0].err, "ping failed")
}

func TestStoreSummariesSkipsEmptyRuns(t *testing.T) {
	primary := &recordingSink{}
	fallback := &recordingSink{}
	runlog := &recordingRunlog{}

	empty := &models.Summary{RunID: "census-run", DataSource: "census", Attempted: 1}
	empty.AddFailure("031", "fetch failed")

	selected := []config.SourceConfig{{Name: "census"}, {Name: "bls"}}
	summaries := []*models.Summary{empty, nil}

	storeSummaries(primary, nil, fallback, runlog, selected, summaries, utils.NewLogger())

	require.Empty(t, primary.calls, "a run without records triggers no sink call")
	require.Empty(t, fallback.calls)
	require.Len(t, runlog.entries, 1, "the failed run is still recorded; nil summaries are skipped")
	require.NoError(t, runlog.entries[0].err)
}
