package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "perfume-studio/internal/common/errors"
)

func testClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		RequestTimeout:    time.Second,
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err       string
		retryable bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED", true},
		{"rpc error: code = NotFound desc = Expected to find process definition", false},
		{"rpc error: code = InvalidArgument desc = bad variables", false},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableZeebeError(errors.New(tt.err)))
		})
	}
}

func TestExecuteWithRetry_RecoversFromTransientFailure(t *testing.T) {
	c := testClient(3)
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return "ok", nil
	}, "create process instance")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	c := testClient(2)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("unavailable")
	}, "deploy process")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, &apperrors.StandardError{Code: apperrors.ErrCodeWorkflowUnavailable}))
}

func TestExecuteWithRetry_RejectionIsNotRetried(t *testing.T) {
	c := testClient(3)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("NOT_FOUND: no process with id perfume-description")
	}, "create process instance")

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeWorkflowRejected, stdErr.Code)
	assert.Equal(t, "create process instance", stdErr.Metadata["operation"])
}

func TestExecuteWithRetry_StandardErrorPassesThrough(t *testing.T) {
	c := testClient(3)
	want := apperrors.NewInputValidationError("process variables")

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		return nil, want
	}, "create process instance")

	assert.Same(t, want, err)
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := testClient(3)
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, errors.New("timeout")
	}, "deploy process")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
