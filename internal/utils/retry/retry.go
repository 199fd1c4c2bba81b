// internal/utils/retry/retry.go
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	DefaultMaxTries = 3
	DefaultDelay    = 500 * time.Millisecond
)

// Policy задает количество попыток и фиксированную паузу между ними
type Policy struct {
	MaxTries uint
	Delay    time.Duration
	// Permanent помечает ошибки, которые повторять бессмысленно
	Permanent func(error) bool
}

func DefaultPolicy() Policy {
	return Policy{MaxTries: DefaultMaxTries, Delay: DefaultDelay}
}

// Wrapper оборачивает мутирующие вызовы (open/close/swap) в повторные попытки.
// Read-only опрос сюда не идет, у монитора свой счетчик.
type Wrapper struct {
	logger  *zap.Logger
	policy  Policy
	onRetry func(operation string)
}

type Option func(*Wrapper)

// WithRetryHook вызывается на каждую неудачную попытку (метрики)
func WithRetryHook(hook func(operation string)) Option {
	return func(w *Wrapper) { w.onRetry = hook }
}

func New(logger *zap.Logger, policy Policy, opts ...Option) *Wrapper {
	if policy.MaxTries == 0 {
		policy.MaxTries = DefaultMaxTries
	}
	w := &Wrapper{
		logger: logger.Named("retry"),
		policy: policy,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Do выполняет fn до policy.MaxTries раз и возвращает последнюю ошибку
func Do[T any](ctx context.Context, w *Wrapper, operation string, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0
	op := func() (T, error) {
		attempt++
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return res, backoff.Permanent(err)
		}
		if w.policy.Permanent != nil && w.policy.Permanent(err) {
			w.logger.Warn("⛔ Non-retryable error",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		w.logger.Warn("🔁 Attempt failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Uint("max_tries", w.policy.MaxTries),
			zap.Duration("next_retry", next),
			zap.Error(err))
		if w.onRetry != nil {
			w.onRetry(operation)
		}
	}

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(w.policy.Delay)),
		backoff.WithMaxTries(w.policy.MaxTries),
		backoff.WithNotify(notify))
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		w.logger.Error("❌ Operation failed after retries",
			zap.String("operation", operation),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return res, err
	}
	return res, nil
}
