// internal/dlmm/gateway/pool.go

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
	"github.com/rovshanmuradov/dlmm-bot/internal/reserve"
)

// GetPool возвращает метаданные пула и текущий активный бин.
func (c *Client) GetPool(ctx context.Context, pool string) (*dlmm.PoolMetadata, error) {
	o, err := c.doObject(ctx, http.MethodGet, "/v1/pools/"+url.PathEscape(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("get pool %s: %w", pool, err)
	}
	return normalizePool(pool, o)
}

func (c *Client) GetActiveBin(ctx context.Context, pool string) (int32, error) {
	o, err := c.doObject(ctx, http.MethodGet, "/v1/pools/"+url.PathEscape(pool)+"/active-bin", nil)
	if err != nil {
		return 0, fmt.Errorf("get active bin: %w", err)
	}
	return normalizeActiveBin(o)
}

// GetPosition возвращает nil, nil для отсутствующей позиции (404).
func (c *Client) GetPosition(ctx context.Context, positionID string) (*dlmm.PositionSnapshot, error) {
	o, err := c.doObject(ctx, http.MethodGet, "/v1/positions/"+url.PathEscape(positionID), nil)
	if err != nil {
		if errors.Is(err, dlmm.ErrPositionNotFound) {
			c.logger.Debug("Position not found", zap.String("position", positionID))
			return nil, nil
		}
		return nil, fmt.Errorf("get position %s: %w", positionID, err)
	}
	return normalizePosition(positionID, o, time.Now())
}

func (c *Client) ListPositions(ctx context.Context, pool string) ([]string, error) {
	path := "/v1/pools/" + url.PathEscape(pool) + "/positions?owner=" + url.QueryEscape(c.owner)
	decoded, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		if errors.Is(err, dlmm.ErrPositionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return normalizePositionIDs(decoded), nil
}

type openPayload struct {
	Pool          string            `json:"pool"`
	Owner         string            `json:"owner"`
	MinBinID      int32             `json:"minBinId"`
	MaxBinID      int32             `json:"maxBinId"`
	Span          int               `json:"span"`
	AmountX       string            `json:"amountX"`
	AmountY       string            `json:"amountY"`
	ReserveRatio  float64           `json:"reserveRatio"`
	Strategy      dlmm.StrategyType `json:"strategy"`
	Swapless      bool              `json:"swapless"`
	Direction     string            `json:"direction,omitempty"`
	AllowExisting bool              `json:"allowExisting"`
}

// OpenPosition отклоняет запрос, если у кошелька уже есть позиция и обход не разрешен.
func (c *Client) OpenPosition(ctx context.Context, req *dlmm.OpenRequest, ledger *reserve.Ledger) (*dlmm.OpenResult, error) {
	if !req.AllowExisting {
		existing, err := c.ListPositions(ctx, req.Pool)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, fmt.Errorf("%w: %s", dlmm.ErrPositionExists, existing[0])
		}
	}

	payload := openPayload{
		Pool:          req.Pool,
		Owner:         c.owner,
		MinBinID:      req.MinBin,
		MaxBinID:      req.MaxBin,
		Span:          req.Span,
		AmountX:       strconv.FormatUint(req.AmountX, 10),
		AmountY:       strconv.FormatUint(req.AmountY, 10),
		ReserveRatio:  req.ReserveRatio,
		Strategy:      req.Strategy,
		AllowExisting: req.AllowExisting,
	}
	if req.Swapless != nil {
		payload.Swapless = true
		payload.Direction = string(req.Swapless.Direction)
	}

	c.logger.Debug("Opening position",
		zap.Int32("min_bin", req.MinBin),
		zap.Int32("max_bin", req.MaxBin),
		zap.Uint64("amount_x", req.AmountX),
		zap.Uint64("amount_y", req.AmountY))

	o, err := c.doObject(ctx, http.MethodPost, "/v1/positions", payload)
	if err != nil {
		return nil, fmt.Errorf("open position: %w", err)
	}
	res, err := normalizeOpen(o)
	if err != nil {
		return nil, err
	}

	if ledger != nil {
		// позиция уже открыта: битые суммы резерва не повод повторять открытие
		buffer, rounding, err := reservedAmounts(o)
		if err != nil {
			c.logger.Warn("⚠️ Ignoring reserved amounts in open response",
				zap.String("position", res.PositionID), zap.Error(err))
		}
		ledger.AddFeeBuffer(buffer)
		ledger.AddRounding(rounding)
	}
	return res, nil
}

// ClosePosition выводит ликвидность и забирает комиссии одной операцией.
func (c *Client) ClosePosition(ctx context.Context, positionID string) (*dlmm.CloseResult, error) {
	body := map[string]string{"owner": c.owner}
	o, err := c.doObject(ctx, http.MethodPost, "/v1/positions/"+url.PathEscape(positionID)+"/close", body)
	if err != nil {
		return nil, fmt.Errorf("close position %s: %w", positionID, err)
	}
	return normalizeClose(positionID, o)
}
