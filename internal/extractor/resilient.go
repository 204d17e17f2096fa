package extractor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"

	"finsync/internal/port"
	"finsync/internal/resilience"
)

const operationName = "extractor"

// ResilientOptions configures the guards around collaborator calls.
type ResilientOptions struct {
	// CallTimeout bounds each attempt. A timeout counts as a failure.
	CallTimeout time.Duration
	// RatePerMinute caps calls across all callers. 0 disables limiting.
	RatePerMinute int
	Policy        resilience.Config
}

// Resilient wraps a TextExtractor with a rate limiter, per-call timeouts,
// retries and a circuit breaker. It implements port.TextExtractor.
type Resilient struct {
	next     port.TextExtractor
	executor *resilience.Executor
	limiter  *rate.Limiter
	timeout  time.Duration
}

// NewResilient wraps next.
func NewResilient(next port.TextExtractor, opts ResilientOptions) *Resilient {
	r := &Resilient{
		next:     next,
		executor: resilience.NewExecutor(opts.Policy),
		timeout:  opts.CallTimeout,
	}
	if opts.RatePerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 1)
	}
	return r
}

func (r *Resilient) Extract(ctx context.Context, input port.ExtractInput) (string, error) {
	var out string
	err := r.executor.Execute(ctx, operationName, func(ctx context.Context) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		text, err := r.next.Extract(callCtx, input)
		if err != nil {
			return err
		}
		out = text
		return nil
	}, classify(ctx))
	if err != nil {
		return "", err
	}
	return out, nil
}

// classify retries timeouts, network errors and 5xx replies. A cancelled
// caller context is neither retried nor held against the breaker.
func classify(parent context.Context) resilience.ErrorClassifier {
	return func(err error) resilience.ErrorClassification {
		if parent.Err() != nil {
			return resilience.ErrorClassification{}
		}

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			return resilience.ErrorClassification{RecordFailure: true}
		}
		var stErr *StatusError
		if errors.As(err, &stErr) {
			return resilience.ErrorClassification{Retryable: stErr.Temporary(), RecordFailure: true}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{RecordFailure: true}
	}
}
