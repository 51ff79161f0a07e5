package collect

import (
	"context"
	"time"

	"github.com/google/uuid"

	"econdata-collector/metrics"
	"econdata-collector/models"
	"econdata-collector/utils"
)

// Source describes one upstream API to the pipeline: how to turn a target
// into a request, how to flatten its payload into rows, and which mapping
// table and batch-constant context apply.
type Source interface {
	Name() string
	BuildRequest(t models.Target) models.RequestSpec
	Extract(payload any) ([]map[string]any, error)
	Context(t models.Target) Context
	FieldMap() models.FieldMap
	// CheckPayload reports an application-level error embedded in an
	// otherwise successful response. Return nil when the source has no
	// such convention.
	CheckPayload(payload any) error
}

// Runner drives the fetch-parse loop across all targets for one collection
// invocation. Per-target failures are isolated: a target that ultimately
// fails is recorded in the summary and the loop proceeds. The runner never
// talks to a sink; persistence is an explicit step taken by the caller so
// partial results can be inspected or discarded first.
type Runner struct {
	source  Source
	limiter *RateLimiter
	fetcher *Fetcher
	parser  *Parser
	logger  *utils.Logger
	metrics *metrics.Set
}

// NewRunner wires one source to its limiter, fetcher and parser. The run
// owns all of them; nothing is shared between concurrent runs.
func NewRunner(src Source, limiter *RateLimiter, fetcher *Fetcher, parser *Parser, logger *utils.Logger, set *metrics.Set) *Runner {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Runner{
		source:  src,
		limiter: limiter,
		fetcher: fetcher,
		parser:  parser,
		logger:  logger.Named(src.Name()),
		metrics: set,
	}
}

// Collect processes the targets strictly in order: wait for the rate
// limiter, fetch, extract, parse, accumulate. The deadline on ctx is
// checked cooperatively between targets; when it expires the remaining
// targets are recorded as failures so every target is accounted for
// exactly once.
func (r *Runner) Collect(ctx context.Context, targets []models.Target) *models.Summary {
	summary := &models.Summary{
		RunID:      uuid.NewString(),
		DataSource: r.source.Name(),
		StartedAt:  time.Now(),
		Attempted:  len(targets),
	}
	fm := r.source.FieldMap()

	r.logger.Info("run %s starting: %d target(s)", summary.RunID, len(targets))

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			for _, left := range targets[i:] {
				summary.AddFailure(left.ID, "run abandoned: "+err.Error())
			}
			r.logger.Error("run %s abandoned after %d target(s): %v", summary.RunID, i, err)
			break
		}

		r.limiter.Wait()

		resp := r.fetcher.Fetch(ctx, r.source.BuildRequest(target))
		if !resp.OK() {
			reason := "fetch failed"
			if resp.Err != nil {
				reason = resp.Err.Error()
			}
			summary.AddFailure(target.ID, reason)
			continue
		}

		rows, err := r.source.Extract(resp.Payload)
		if err != nil {
			summary.AddFailure(target.ID, "unusable payload: "+err.Error())
			r.logger.Warn("target %s: unusable payload: %v", target.ID, err)
			continue
		}

		records, warnings := r.parser.Parse(rows, fm, r.source.Context(target))
		summary.AddSuccess(records)
		r.logger.Debug("target %s: %d record(s), %d warning(s)", target.ID, len(records), len(warnings))
	}

	summary.Elapsed = time.Since(summary.StartedAt)
	r.metrics.ObserveRun(summary.DataSource, runStatus(summary), summary.Elapsed.Seconds())
	r.logger.Info("run %s finished: %d succeeded, %d failed, %d record(s) in %s",
		summary.RunID, summary.Succeeded, summary.Failed(), len(summary.Records),
		summary.Elapsed.Truncate(time.Millisecond))

	return summary
}

func runStatus(s *models.Summary) string {
	switch {
	case s.Failed() == 0:
		return "ok"
	case s.Succeeded > 0:
		return "partial"
	default:
		return "failed"
	}
}
