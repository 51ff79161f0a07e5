package services

import (
	"fmt"
	"sort"
	"strings"

	"econdata-collector/models"
	"econdata-collector/utils"
)

// SourceStats aggregates the runs of one data source.
type SourceStats struct {
	Runs     int
	Records  int
	Failures int
	NullRate float64
}

// RunReport summarizes a batch of finished collection runs for the console.
type RunReport struct {
	TotalRuns     int
	TotalRecords  int
	TotalFailures int
	BySource      map[string]SourceStats
}

// ReportService computes summary statistics over finished runs so partial
// success is visible and actionable rather than hidden behind a pass/fail
// flag.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate folds the run summaries into per-source stats, including the
// fraction of field cells that came back null.
func (s *ReportService) Generate(summaries []*models.Summary) *RunReport {
	report := &RunReport{BySource: make(map[string]SourceStats)}

	for _, sum := range summaries {
		if sum == nil {
			continue
		}
		report.TotalRuns++
		report.TotalRecords += len(sum.Records)
		report.TotalFailures += sum.Failed()

		stats := report.BySource[sum.DataSource]
		stats.Runs++
		stats.Records += len(sum.Records)
		stats.Failures += sum.Failed()
		stats.NullRate = nullRate(stats.NullRate, stats.Records-len(sum.Records), sum.Records)
		report.BySource[sum.DataSource] = stats
	}

	return report
}

// Print writes the report to the run log.
func (s *ReportService) Print(report *RunReport) {
	s.logger.Info("collection report: %d run(s), %d record(s), %d failed target(s)",
		report.TotalRuns, report.TotalRecords, report.TotalFailures)

	names := make([]string, 0, len(report.BySource))
	for name := range report.BySource {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stats := report.BySource[name]
		s.logger.Info("  %-12s %d record(s), %d failure(s), %.1f%% null cells",
			name+":", stats.Records, stats.Failures, stats.NullRate*100)
	}
}

// FailureLines renders the failure list of one summary for operators.
func FailureLines(sum *models.Summary) string {
	if sum.Failed() == 0 {
		return ""
	}
	lines := make([]string, 0, len(sum.Failures))
	for _, f := range sum.Failures {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Target, f.Reason))
	}
	return strings.Join(lines, "\n")
}

// nullRate folds a new batch of records into a running null-cell fraction.
// prevCount is the number of records already folded in.
func nullRate(prev float64, prevCount int, records []models.Record) float64 {
	nulls, cells := 0, 0
	for _, rec := range records {
		for _, v := range rec.Fields {
			cells++
			if v.Null {
				nulls++
			}
		}
	}
	if cells == 0 {
		return prev
	}
	batch := float64(nulls) / float64(cells)
	if prevCount <= 0 {
		return batch
	}
	total := float64(prevCount + len(records))
	return (prev*float64(prevCount) + batch*float64(len(records))) / total
}
