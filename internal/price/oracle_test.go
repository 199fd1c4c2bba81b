// internal/price/oracle_test.go

package price

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

const (
	solMint   = "So11111111111111111111111111111111111111112"
	tokenMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func newOracle(t *testing.T, handler http.HandlerFunc, ttl time.Duration) *Oracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOracle(srv.URL, time.Second, 1000, ttl, zaptest.NewLogger(t))
}

func TestGetPriceV3Shape(t *testing.T) {
	o := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, solMint, r.URL.Query().Get("ids"))
		fmt.Fprintf(w, `{"%s": {"usdPrice": 147.25, "decimals": 9}}`, solMint)
	}, 0)

	p, err := o.GetPrice(context.Background(), solMint)
	require.NoError(t, err)
	assert.Equal(t, 147.25, p)
}

func TestGetPricesV2Shape(t *testing.T) {
	o := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data": {"%s": {"id": "x", "price": "150.5"}, "%s": {"price": 1.0001}}, "timeTaken": 0.01}`, solMint, tokenMint)
	}, 0)

	prices, err := o.GetPrices(context.Background(), solMint, tokenMint)
	require.NoError(t, err)
	assert.Equal(t, 150.5, prices[solMint])
	assert.Equal(t, 1.0001, prices[tokenMint])
}

func TestGetPriceMissingIsUnavailable(t *testing.T) {
	o := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"%s": null}`, tokenMint)
	}, 0)

	_, err := o.GetPrice(context.Background(), tokenMint)
	assert.ErrorIs(t, err, dlmm.ErrPriceUnavailable)
}

func TestGetPriceHTTPErrorIsUnavailable(t *testing.T) {
	o := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}, 0)

	_, err := o.GetPrice(context.Background(), solMint)
	assert.ErrorIs(t, err, dlmm.ErrPriceUnavailable)
}

func TestGetPriceUsesCacheWithinTTL(t *testing.T) {
	var calls atomic.Int32
	o := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"%s": {"usdPrice": 100}}`, solMint)
	}, time.Minute)

	current := time.Unix(1_000, 0)
	o.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		_, err := o.GetPrice(context.Background(), solMint)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())

	current = current.Add(2 * time.Minute)
	_, err := o.GetPrice(context.Background(), solMint)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetPriceRespectsCancelledContext(t *testing.T) {
	o := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{}`)
	}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.GetPrice(ctx, solMint)
	assert.Error(t, err)
}
