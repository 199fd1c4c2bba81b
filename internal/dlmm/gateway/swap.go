// internal/dlmm/gateway/swap.go

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type swapPayload struct {
	Owner      string `json:"owner"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	Amount     string `json:"amount"`
}

// Swap обменивает amount inMint на outMint через роутер sidecar-а.
func (c *Client) Swap(ctx context.Context, inMint, outMint string, amount uint64) (string, error) {
	if amount == 0 {
		return "", errors.New("swap amount is zero")
	}

	o, err := c.doObject(ctx, http.MethodPost, "/v1/swap", swapPayload{
		Owner:      c.owner,
		InputMint:  inMint,
		OutputMint: outMint,
		Amount:     strconv.FormatUint(amount, 10),
	})
	if err != nil {
		return "", fmt.Errorf("swap: %w", err)
	}

	sig := o.str(keysSignature...)
	if sig == "" {
		return "", errors.New("swap: no signature in response")
	}
	c.logger.Info("💱 Swap executed",
		zap.String("in", inMint),
		zap.String("out", outMint),
		zap.Uint64("amount", amount),
		zap.String("signature", sig))
	return sig, nil
}
