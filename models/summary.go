package models

import "time"

// Failure records one target that could not be collected.
type Failure struct {
	Target string
	Reason string
}

// Summary is the aggregate result of one collection run. It is transient
// orchestration state: created when the run starts, mutated as targets
// complete, finalized when the loop ends. It owns all records produced
// until they are handed to a sink.
type Summary struct {
	RunID      string
	DataSource string
	StartedAt  time.Time
	Elapsed    time.Duration
	Attempted  int
	Succeeded  int
	Failures   []Failure
	Records    []Record
}

// Failed returns the number of targets that did not produce records.
func (s *Summary) Failed() int { return len(s.Failures) }

// AddSuccess appends the records produced by one target.
func (s *Summary) AddSuccess(recs []Record) {
	s.Succeeded++
	s.Records = append(s.Records, recs...)
}

// AddFailure records a failed target with its reason.
func (s *Summary) AddFailure(target, reason string) {
	s.Failures = append(s.Failures, Failure{Target: target, Reason: reason})
}
