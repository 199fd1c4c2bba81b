// internal/utils/retry/retry_test.go
package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errFlaky = errors.New("rpc node unavailable")

func fastPolicy() Policy {
	return Policy{MaxTries: 3, Delay: time.Millisecond}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	w := New(zaptest.NewLogger(t), fastPolicy())

	calls := 0
	res, err := Do(context.Background(), w, "open_position", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errFlaky
		}
		return "pos-1", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "pos-1", res)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsFinalErrorAfterMaxTries(t *testing.T) {
	var hooked []string
	w := New(zaptest.NewLogger(t), fastPolicy(), WithRetryHook(func(op string) { hooked = append(hooked, op) }))

	calls := 0
	_, err := Do(context.Background(), w, "close_position", func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
	// notify не вызывается после последней попытки
	assert.Equal(t, []string{"close_position", "close_position"}, hooked)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	errExists := errors.New("position already exists")
	policy := fastPolicy()
	policy.Permanent = func(err error) bool { return errors.Is(err, errExists) }
	w := New(zaptest.NewLogger(t), policy)

	calls := 0
	_, err := Do(context.Background(), w, "open_position", func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errExists
	})

	assert.ErrorIs(t, err, errExists)
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	w := New(zaptest.NewLogger(t), Policy{MaxTries: 5, Delay: 50 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, w, "swap", func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errFlaky
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, uint(3), p.MaxTries)
	assert.Equal(t, 500*time.Millisecond, p.Delay)
}
