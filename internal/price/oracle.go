// internal/price/oracle.go

package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

const defaultTimeout = 10 * time.Second

type cachedPrice struct {
	value     float64
	fetchedAt time.Time
}

// Oracle получает USD цены из Jupiter Price API.
// Понимает ответы v2 ({"data": {mint: {"price": "1.23"}}}) и v3 ({mint: {"usdPrice": 1.23}}).
type Oracle struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	ttl     time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedPrice
	now   func() time.Time
}

var _ dlmm.PriceOracle = (*Oracle)(nil)

// NewOracle создает оракул. rps ограничивает частоту запросов, ttl - время жизни кэша.
func NewOracle(baseURL string, timeout time.Duration, rps float64, ttl time.Duration, logger *zap.Logger) *Oracle {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if rps <= 0 {
		rps = 1
	}
	return &Oracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		ttl:     ttl,
		logger:  logger.Named("price-oracle"),
		cache:   make(map[string]cachedPrice),
		now:     time.Now,
	}
}

// GetPrice возвращает цену mint в USD или dlmm.ErrPriceUnavailable.
func (o *Oracle) GetPrice(ctx context.Context, mint string) (float64, error) {
	prices, err := o.GetPrices(ctx, mint)
	if err != nil {
		return 0, err
	}
	p, ok := prices[mint]
	if !ok {
		return 0, fmt.Errorf("%w: %s", dlmm.ErrPriceUnavailable, mint)
	}
	return p, nil
}

// GetPrices запрашивает несколько mint одним вызовом. Отсутствующие цены не попадают в map.
func (o *Oracle) GetPrices(ctx context.Context, mints ...string) (map[string]float64, error) {
	result := make(map[string]float64, len(mints))
	var missing []string

	o.mu.Lock()
	now := o.now()
	for _, m := range mints {
		if c, ok := o.cache[m]; ok && o.ttl > 0 && now.Sub(c.fetchedAt) < o.ttl {
			result[m] = c.value
			continue
		}
		missing = append(missing, m)
	}
	o.mu.Unlock()

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := o.fetch(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dlmm.ErrPriceUnavailable, err)
	}

	o.mu.Lock()
	now = o.now()
	for m, p := range fetched {
		o.cache[m] = cachedPrice{value: p, fetchedAt: now}
		result[m] = p
	}
	o.mu.Unlock()

	return result, nil
}

func (o *Oracle) fetch(ctx context.Context, mints []string) (map[string]float64, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := o.baseURL + "?ids=" + url.QueryEscape(strings.Join(mints, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// v2 заворачивает цены в data
	if data, ok := raw["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			raw = inner
		}
	}

	prices := make(map[string]float64, len(mints))
	for _, m := range mints {
		entry, ok := raw[m]
		if !ok {
			continue
		}
		if p, ok := parseEntry(entry); ok {
			prices[m] = p
		} else {
			o.logger.Debug("Price missing in response", zap.String("mint", m))
		}
	}
	return prices, nil
}

type priceEntry struct {
	USDPrice *float64        `json:"usdPrice"`
	Price    json.RawMessage `json:"price"`
}

func parseEntry(data json.RawMessage) (float64, bool) {
	var e priceEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return 0, false
	}
	if e.USDPrice != nil && *e.USDPrice > 0 {
		return *e.USDPrice, true
	}
	if len(e.Price) == 0 {
		return 0, false
	}

	// "price": "1.23" или "price": 1.23
	s := strings.Trim(string(e.Price), `"`)
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || p <= 0 {
		return 0, false
	}
	return p, true
}
