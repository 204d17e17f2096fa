package extractor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsync/internal/extractor"
	"finsync/internal/port"
	"finsync/internal/resilience"
	"finsync/mocks"
)

func fastPolicy() resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	}
}

func TestResilient_RetriesServerErrors(t *testing.T) {
	inner := new(mocks.MockTextExtractor)
	inner.On("Extract", mock.Anything, ocrInput).
		Return("", &extractor.StatusError{Provider: "gemini", StatusCode: 503}).Once()
	inner.On("Extract", mock.Anything, ocrInput).Return("text", nil).Once()

	r := extractor.NewResilient(inner, extractor.ResilientOptions{Policy: fastPolicy()})
	out, err := r.Extract(context.Background(), ocrInput)

	require.NoError(t, err)
	assert.Equal(t, "text", out)
	inner.AssertNumberOfCalls(t, "Extract", 2)
}

func TestResilient_DoesNotRetryClientErrors(t *testing.T) {
	inner := new(mocks.MockTextExtractor)
	inner.On("Extract", mock.Anything, ocrInput).
		Return("", &extractor.StatusError{Provider: "gemini", StatusCode: 400})

	r := extractor.NewResilient(inner, extractor.ResilientOptions{Policy: fastPolicy()})
	_, err := r.Extract(context.Background(), ocrInput)

	var stErr *extractor.StatusError
	require.ErrorAs(t, err, &stErr)
	inner.AssertNumberOfCalls(t, "Extract", 1)
}

type slowExtractor struct{ calls int }

func (s *slowExtractor) Extract(ctx context.Context, _ port.ExtractInput) (string, error) {
	s.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func TestResilient_TimeoutIsFailure(t *testing.T) {
	slow := &slowExtractor{}
	policy := fastPolicy()
	policy.RetryMaxAttempts = 2

	r := extractor.NewResilient(slow, extractor.ResilientOptions{CallTimeout: 5 * time.Millisecond, Policy: policy})
	_, err := r.Extract(context.Background(), ocrInput)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 2, slow.calls)
}

func TestResilient_RateLimiterHonoursCancellation(t *testing.T) {
	inner := new(mocks.MockTextExtractor)
	inner.On("Extract", mock.Anything, ocrInput).Return("text", nil)

	r := extractor.NewResilient(inner, extractor.ResilientOptions{RatePerMinute: 1, Policy: fastPolicy()})
	_, err := r.Extract(context.Background(), ocrInput)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Extract(ctx, ocrInput)
	assert.Error(t, err)
	inner.AssertNumberOfCalls(t, "Extract", 1)
}
