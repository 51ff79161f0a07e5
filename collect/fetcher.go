package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"econdata-collector/metrics"
	"econdata-collector/models"
	"econdata-collector/utils"
)

const defaultRequestTimeout = 30 * time.Second

// PayloadCheck inspects a decoded payload for an application-level error.
// Several sources (BLS among them) signal failure via a status field inside
// an HTTP 200 response, so transport success alone is not enough.
type PayloadCheck func(payload any) error

// FetcherOptions configures a Fetcher for one source.
type FetcherOptions struct {
	Source       string
	MaxRetries   int
	Timeout      time.Duration
	PayloadCheck PayloadCheck
	Decode       func(body []byte) (any, error)
	Logger       *utils.Logger
	Metrics      *metrics.Set
}

// Fetcher executes one network call per target and hides transient failure
// behind a bounded retry policy. Exhausted retries surface as a soft
// failure in the returned RawResponse, never as an error: callers must
// check the status explicitly so a run can continue past one bad target.
type Fetcher struct {
	source       string
	client       *resty.Client
	maxRetries   int
	payloadCheck PayloadCheck
	decode       func([]byte) (any, error)
	logger       *utils.Logger
	metrics      *metrics.Set
	sleep        func(time.Duration)
}

// NewFetcher builds a Fetcher. MaxRetries defaults to 3 total attempts and
// the per-request timeout to 30 seconds.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewLogger()
	}
	decode := opts.Decode
	if decode == nil {
		decode = decodeJSON
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &Fetcher{
		source:       opts.Source,
		client:       client,
		maxRetries:   opts.MaxRetries,
		payloadCheck: opts.PayloadCheck,
		decode:       decode,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		sleep:        time.Sleep,
	}
}

// Fetch performs the call described by spec with up to maxRetries attempts
// and 2^attempt seconds of back-off between them (attempt indexed from 0).
// Any network error, non-2xx status, undecodable body or payload-level
// error is retried; 4xx responses are retried like 5xx ones.
func (f *Fetcher) Fetch(ctx context.Context, spec models.RequestSpec) models.RawResponse {
	var (
		lastErr    error
		httpStatus int
		latency    time.Duration
	)

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		f.metrics.IncFetchAttempt(f.source)

		payload, status, took, err := f.attempt(ctx, spec)
		httpStatus = status
		latency = took
		if err == nil {
			return models.RawResponse{
				Status:     models.StatusSuccess,
				Payload:    payload,
				HTTPStatus: status,
				Latency:    took,
			}
		}

		lastErr = err
		f.logger.Warn("fetch %s attempt %d/%d failed: %v",
			spec.URL, attempt+1, f.maxRetries, err)

		if attempt < f.maxRetries-1 {
			f.sleep(backoffDelay(attempt))
		}
	}

	f.metrics.IncFetchFailure(f.source)
	f.logger.Error("fetch %s exhausted %d attempts: %v", spec.URL, f.maxRetries, lastErr)

	return models.RawResponse{
		Status:     models.StatusFailure,
		HTTPStatus: httpStatus,
		Latency:    latency,
		Err:        lastErr,
	}
}

func (f *Fetcher) attempt(ctx context.Context, spec models.RequestSpec) (any, int, time.Duration, error) {
	req := f.client.R().SetContext(ctx)
	if len(spec.Query) > 0 {
		req.SetQueryParams(spec.Query)
	}
	if len(spec.Headers) > 0 {
		req.SetHeaders(spec.Headers)
	}
	if spec.Body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(spec.Body)
	}

	resp, err := req.Execute(spec.Method, spec.URL)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("request: %w", err)
	}

	status := resp.StatusCode()
	took := resp.Time()
	if !resp.IsSuccess() {
		return nil, status, took, fmt.Errorf("http status %d", status)
	}

	payload, err := f.decode(resp.Body())
	if err != nil {
		return nil, status, took, fmt.Errorf("decode body: %w", err)
	}

	if f.payloadCheck != nil {
		if err := f.payloadCheck(payload); err != nil {
			return nil, status, took, fmt.Errorf("payload: %w", err)
		}
	}

	return payload, status, took, nil
}

func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func decodeJSON(body []byte) (any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
