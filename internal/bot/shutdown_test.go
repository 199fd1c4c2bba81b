// internal/bot/shutdown_test.go
package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestShutdownClosesInReverseOrder(t *testing.T) {
	sh := NewShutdownHandler(zaptest.NewLogger(t), time.Second)

	var order []string
	for _, name := range []string{"logger", "metrics", "monitor"} {
		sh.AddFunc(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, sh.Shutdown(context.Background()))
	assert.Equal(t, []string{"monitor", "metrics", "logger"}, order)
}

func TestShutdownCollectsErrors(t *testing.T) {
	sh := NewShutdownHandler(zaptest.NewLogger(t), time.Second)
	boom := errors.New("boom")
	sh.AddFunc("ok", func() error { return nil })
	sh.AddFunc("bad", func() error { return boom })

	err := sh.Shutdown(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad")
}

func TestShutdownTimeout(t *testing.T) {
	sh := NewShutdownHandler(zaptest.NewLogger(t), 20*time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	sh.AddFunc("stuck", func() error {
		<-release
		return nil
	})

	err := sh.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown timeout")
}
