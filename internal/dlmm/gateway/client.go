// internal/dlmm/gateway/client.go

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

const defaultTimeout = 30 * time.Second

// Client работает с sidecar-сервисом, который исполняет инструкции DLMM SDK.
// Наружу отдает только нормализованные типы пакета dlmm.
type Client struct {
	baseURL string
	owner   string
	client  *http.Client
	logger  *zap.Logger
}

var (
	_ dlmm.PoolClient = (*Client)(nil)
	_ dlmm.Swapper    = (*Client)(nil)
)

// NewClient создает клиент. owner - адрес кошелька, чьи позиции ищутся.
func NewClient(baseURL, owner string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   owner,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("dlmm-gateway"),
	}
}

// StatusError - неожиданный HTTP статус от gateway
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.Code, e.Body)
}

// doRequest выполняет запрос и декодирует ответ в rawObject/[]any
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (interface{}, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %v", dlmm.ErrPositionNotFound, statusErr)
		case http.StatusConflict:
			return nil, fmt.Errorf("%w: %v", dlmm.ErrPositionExists, statusErr)
		}
		return nil, statusErr
	}

	var decoded interface{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

// doObject - doRequest для ответов-объектов; поле data разворачивается
func (c *Client) doObject(ctx context.Context, method, path string, body interface{}) (rawObject, error) {
	decoded, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected response shape %T", decoded)
	}
	o := rawObject(obj)
	if inner := o.obj("data", "result"); inner != nil {
		return inner, nil
	}
	return o, nil
}
