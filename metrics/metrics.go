package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set bundles the collection counters. It is created once at startup and
// passed explicitly to the components that record into it; a nil *Set is
// valid and records nothing.
type Set struct {
	FetchAttempts *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	RecordsParsed *prometheus.CounterVec
	ParseWarnings *prometheus.CounterVec
	RunsCompleted *prometheus.CounterVec
	RunDuration   *prometheus.SummaryVec
}

// NewSet registers the collection metrics on the given registerer.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "fetch_attempts_total",
			Help:      "Number of outbound fetch attempts by source",
		}, []string{"source"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "fetch_failures_total",
			Help:      "Number of fetches that exhausted their retry budget",
		}, []string{"source"}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "records_parsed_total",
			Help:      "Number of records emitted by the parser",
		}, []string{"source"}),
		ParseWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "parse_warnings_total",
			Help:      "Number of fields that failed type coercion",
		}, []string{"source"}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "runs_completed_total",
			Help:      "Number of collection runs by terminal status",
		}, []string{"source", "status"}),
		RunDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: "collector",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of collection runs",
		}, []string{"source"}),
	}
	reg.MustRegister(
		s.FetchAttempts, s.FetchFailures, s.RecordsParsed,
		s.ParseWarnings, s.RunsCompleted, s.RunDuration,
	)
	return s
}

func (s *Set) IncFetchAttempt(source string) {
	if s != nil {
		s.FetchAttempts.WithLabelValues(source).Inc()
	}
}

func (s *Set) IncFetchFailure(source string) {
	if s != nil {
		s.FetchFailures.WithLabelValues(source).Inc()
	}
}

func (s *Set) AddRecordsParsed(source string, n int) {
	if s != nil {
		s.RecordsParsed.WithLabelValues(source).Add(float64(n))
	}
}

func (s *Set) AddParseWarnings(source string, n int) {
	if s != nil {
		s.ParseWarnings.WithLabelValues(source).Add(float64(n))
	}
}

func (s *Set) ObserveRun(source, status string, seconds float64) {
	if s != nil {
		s.RunsCompleted.WithLabelValues(source, status).Inc()
		s.RunDuration.WithLabelValues(source).Observe(seconds)
	}
}

// Serve exposes /metrics on addr in a background goroutine. Errors from the
// listener are reported through errFn.
func Serve(addr string, reg *prometheus.Registry, errFn func(error)) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && errFn != nil {
			errFn(err)
		}
	}()
}
