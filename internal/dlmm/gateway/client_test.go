// internal/dlmm/gateway/client_test.go

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "owner-1", time.Second, zaptest.NewLogger(t))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetPositionMissingReturnsNil(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	snap, err := c.GetPosition(context.Background(), "gone")
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestGetPositionServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := c.GetPosition(context.Background(), "pos")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestGetActiveBinUnwrapsData(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pools/pool-1/active-bin", r.URL.Path)
		writeJSON(w, map[string]interface{}{"data": map[string]interface{}{"activeId": -42}})
	}))

	bin, err := c.GetActiveBin(context.Background(), "pool-1")
	require.NoError(t, err)
	assert.Equal(t, int32(-42), bin)
}

func TestOpenPositionRejectsExisting(t *testing.T) {
	opened := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pools/pool-1/positions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "owner-1", r.URL.Query().Get("owner"))
		writeJSON(w, []string{"old-pos"})
	})
	mux.HandleFunc("/v1/positions", func(w http.ResponseWriter, r *http.Request) {
		opened = true
	})
	c := newTestClient(t, mux)

	_, err := c.OpenPosition(context.Background(), &dlmm.OpenRequest{Pool: "pool-1"}, reserve.NewLedger())
	assert.ErrorIs(t, err, dlmm.ErrPositionExists)
	assert.True(t, dlmm.IsPermanent(err))
	assert.False(t, opened)
}

func TestOpenPositionWithBypass(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pools/pool-1/positions", func(w http.ResponseWriter, r *http.Request) {
		t.Error("existing positions must not be checked when bypass is set")
	})
	mux.HandleFunc("/v1/positions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var p openPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, int32(90), p.MinBinID)
		assert.Equal(t, int32(99), p.MaxBinID)
		assert.Equal(t, "1000", p.AmountY)
		assert.True(t, p.Swapless)
		assert.Equal(t, "DOWN", p.Direction)

		writeJSON(w, map[string]interface{}{
			"position":   "new-pos",
			"depositUsd": "123.5",
			"txid":       "sig",
			"reserved":   map[string]interface{}{"feeBufferLamports": "5000", "rounding": 3},
		})
	})
	c := newTestClient(t, mux)

	ledger := reserve.NewLedger()
	res, err := c.OpenPosition(context.Background(), &dlmm.OpenRequest{
		Pool:          "pool-1",
		MinBin:        90,
		MaxBin:        99,
		AmountY:       1000,
		Swapless:      &dlmm.SwaplessOptions{Direction: dlmm.DirectionDown},
		AllowExisting: true,
	}, ledger)
	require.NoError(t, err)

	assert.Equal(t, "new-pos", res.PositionID)
	assert.Equal(t, 123.5, res.DepositUSD)
	assert.Equal(t, "sig", res.Signature)
	assert.Equal(t, uint64(5000), ledger.FeeBuffer)
	assert.Equal(t, uint64(3), ledger.Rounding)
}

func TestOpenPositionConflictIsPermanent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "exists", http.StatusConflict)
	}))

	_, err := c.OpenPosition(context.Background(), &dlmm.OpenRequest{Pool: "p", AllowExisting: true}, nil)
	assert.ErrorIs(t, err, dlmm.ErrPositionExists)
}

func TestClosePosition(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/positions/pos-1/close", r.URL.Path)
		writeJSON(w, map[string]interface{}{"amountX": "10", "amountY": "20", "feeX": "1", "feeY": "2", "signature": "s"})
	}))

	res, err := c.ClosePosition(context.Background(), "pos-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, uint64(20), res.AmountY)
}

func TestSwap(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p swapPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "777", p.Amount)
		assert.Equal(t, solMint, p.OutputMint)
		writeJSON(w, map[string]string{"signature": "swap-sig"})
	}))

	sig, err := c.Swap(context.Background(), usdcMint, solMint, 777)
	require.NoError(t, err)
	assert.Equal(t, "swap-sig", sig)

	_, err = c.Swap(context.Background(), usdcMint, solMint, 0)
	assert.Error(t, err)
}
