package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"grpc status", status.Error(codes.NotFound, "Expected to find process definition with process ID 'x'"), true},
		{"wrapped grpc status", fmt.Errorf("send: %w", status.Error(codes.NotFound, "no process")), true},
		{"upper snake case", errors.New("NOT_FOUND: no process"), true},
		{"code name", errors.New("rpc error: code = NotFound desc = no process"), true},
		{"plain words", errors.New("process not found"), true},
		{"other status", status.Error(codes.InvalidArgument, "bad variables"), false},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func newRetryClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}}}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"read: connection reset by peer", true},
		{"NOT_FOUND: Expected to find process definition with process ID 'x'", false},
		{"INVALID_ARGUMENT: bad variables", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(errors.New(tt.err)))
		})
	}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("retries transient failures", func(t *testing.T) {
		c := newRetryClient(2)
		attempts := 0
		result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("unavailable")
			}
			return int64(42), nil
		}, "create-instance")
		require.NoError(t, err)
		assert.Equal(t, int64(42), result)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on permanent failure", func(t *testing.T) {
		c := newRetryClient(3)
		attempts := 0
		cause := errors.New("NOT_FOUND: no process")
		_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			attempts++
			return nil, cause
		}, "create-instance")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "is the process deployed?")
		assert.Equal(t, 1, attempts)
	})

	t.Run("hints at deployment for grpc not found", func(t *testing.T) {
		c := newRetryClient(3)
		_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			return nil, status.Error(codes.NotFound, "Expected to find process definition")
		}, "create-instance")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is the process deployed?")
		assert.Equal(t, codes.NotFound, status.Code(errors.Unwrap(err)))
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		c := newRetryClient(1)
		attempts := 0
		_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			attempts++
			return nil, errors.New("timeout")
		}, "create-instance")
		require.Error(t, err)
		assert.Equal(t, 2, attempts)
		assert.Contains(t, err.Error(), "after 2 attempts")
	})

	t.Run("honours cancellation", func(t *testing.T) {
		c := newRetryClient(5)
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
			cancel()
			return nil, errors.New("unavailable")
		}, "create-instance")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
