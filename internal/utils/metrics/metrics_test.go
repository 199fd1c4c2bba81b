// internal/utils/metrics/metrics_test.go
package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordRebalance("UP", true)
	c.RecordRebalance("UP", true)
	c.RecordRebalance("DOWN", false)
	c.RecordSkippedRebalance("DOWN")
	c.RecordExit("take-profit")
	c.RecordRetry("close_position")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rebalances.WithLabelValues("UP", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rebalances.WithLabelValues("DOWN", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rebalances.WithLabelValues("DOWN", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exits.WithLabelValues("take-profit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.retries.WithLabelValues("close_position")))
}

func TestCollectorGauges(t *testing.T) {
	c := NewCollector()
	c.UpdatePnL(3.5, -12.25, 1040)
	c.ObserveTick(120 * time.Millisecond)

	assert.Equal(t, 3.5, testutil.ToFloat64(c.sessionPnL))
	assert.Equal(t, -12.25, testutil.ToFloat64(c.lifetimePnL))
	assert.Equal(t, 1040.0, testutil.ToFloat64(c.positionValue))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordRebalance("UP", true)
		c.RecordExit("stop-loss")
		c.UpdatePnL(1, 2, 3)
		c.ObserveTick(time.Second)
	})
}

func TestServerHandlerExposesRegistry(t *testing.T) {
	c := NewCollector()
	c.RecordExit("stop-loss")
	s := NewServer(":0", c, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `dlmm_exits_total{reason="stop-loss"} 1`))
}
