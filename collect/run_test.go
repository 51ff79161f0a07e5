package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"econdata-collector/models"
)

// stubSource serves two data points per target from a local test server.
type stubSource struct {
	name string
	url  string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) BuildRequest(t models.Target) models.RequestSpec {
	return models.RequestSpec{
		Method: http.MethodGet,
		URL:    s.url,
		Query:  map[string]string{"id": t.ID},
	}
}

func (s *stubSource) Extract(payload any) ([]map[string]any, error) {
	root, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload is not an object")
	}
	var rows []map[string]any
	for _, r := range root["rows"].([]any) {
		rows = append(rows, r.(map[string]any))
	}
	return rows, nil
}

func (s *stubSource) Context(t models.Target) Context {
	return Context{"series": models.StringValue(t.ID)}
}

func (s *stubSource) FieldMap() models.FieldMap {
	return models.FieldMap{
		Sentinels: []string{"-", ""},
		Fields: []models.Field{
			{External: "PERIOD", Internal: "period_start", Kind: models.KindDate},
			{External: "VALUE", Internal: "value", Kind: models.KindNumber},
		},
	}
}

func (s *stubSource) CheckPayload(any) error { return nil }

// newStubServer serves 2 rows per series and always fails the series "bad".
func newStubServer(t *testing.T, attempts *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "bad" {
			if attempts != nil {
				atomic.AddInt32(attempts, 1)
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"rows":[
			{"PERIOD":"2024-01","VALUE":"1.5"},
			{"PERIOD":"2024-02","VALUE":"2.5"}
		]}`)
	}))
}

func newStubRunner(srv *httptest.Server) *Runner {
	src := &stubSource{name: "stub", url: srv.URL}
	fetcher := newTestFetcher(FetcherOptions{Source: src.name, MaxRetries: 3})
	return NewRunner(src, NewRateLimiter(0), fetcher, NewParser(src.name, nil, nil), nil, nil)
}

func targetList(ids ...string) []models.Target {
	targets := make([]models.Target, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, models.Target{ID: id})
	}
	return targets
}

func TestRunAllTargetsSucceed(t *testing.T) {
	srv := newStubServer(t, nil)
	defer srv.Close()

	summary := newStubRunner(srv).Collect(context.Background(), targetList("a", "b", "c"))

	require.Equal(t, 3, summary.Attempted)
	require.Equal(t, 3, summary.Succeeded)
	require.Empty(t, summary.Failures)
	require.Len(t, summary.Records, 6, "two periods per series")
	require.NotEmpty(t, summary.RunID)
	for _, rec := range summary.Records {
		require.Equal(t, "stub", rec.DataSource)
		require.False(t, rec.CollectedAt.IsZero())
	}
}

func TestRunIsolatesFailedTarget(t *testing.T) {
	var badAttempts int32
	srv := newStubServer(t, &badAttempts)
	defer srv.Close()

	summary := newStubRunner(srv).Collect(context.Background(), targetList("bad", "good"))

	require.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	require.Equal(t, "bad", summary.Failures[0].Target, "the failure entry names the failing target")
	require.Equal(t, int32(3), atomic.LoadInt32(&badAttempts), "retry budget spent before giving up")
	require.Len(t, summary.Records, 2, "the good target still produced records")
}

func TestRunAccountsForEveryTargetExactlyOnce(t *testing.T) {
	srv := newStubServer(t, nil)
	defer srv.Close()

	targets := targetList("a", "bad", "b", "bad", "c")
	summary := newStubRunner(srv).Collect(context.Background(), targets)

	require.Equal(t, len(targets), summary.Succeeded+len(summary.Failures))
	require.Equal(t, len(targets), summary.Attempted)
}

func TestRunUnusablePayloadIsTargetFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["not","an","object"]`)
	}))
	defer srv.Close()

	summary := newStubRunner(srv).Collect(context.Background(), targetList("a"))

	require.Equal(t, 0, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	require.Contains(t, summary.Failures[0].Reason, "unusable payload")
}

func TestRunAbandonedByDeadlineAccountsRemainingTargets(t *testing.T) {
	srv := newStubServer(t, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	targets := targetList("a", "b", "c")
	summary := newStubRunner(srv).Collect(ctx, targets)

	require.Equal(t, 0, summary.Succeeded)
	require.Len(t, summary.Failures, len(targets))
	for _, f := range summary.Failures {
		require.Contains(t, f.Reason, "run abandoned")
	}
}
