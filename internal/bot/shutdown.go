// internal/bot/shutdown.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CloseFunc allows using a function as a Closer
type CloseFunc func() error

func (f CloseFunc) Close() error {
	return f()
}

// ShutdownHandler закрывает зарегистрированные сервисы в обратном порядке (LIFO)
type ShutdownHandler struct {
	logger   *zap.Logger
	services []namedService
	mu       sync.Mutex
	timeout  time.Duration
}

type namedService struct {
	name   string
	closer io.Closer
}

func NewShutdownHandler(logger *zap.Logger, timeout time.Duration) *ShutdownHandler {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownHandler{
		logger:  logger.Named("shutdown"),
		timeout: timeout,
	}
}

// Add registers a service for shutdown
func (sh *ShutdownHandler) Add(name string, closer io.Closer) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.services = append(sh.services, namedService{name: name, closer: closer})
	sh.logger.Debug("Registered service for shutdown", zap.String("service", name))
}

// AddFunc registers a shutdown function
func (sh *ShutdownHandler) AddFunc(name string, fn func() error) {
	sh.Add(name, CloseFunc(fn))
}

// Shutdown закрывает сервисы по одному, последний зарегистрированный первым.
// Сервис, не уложившийся в общий таймаут, пропускается.
func (sh *ShutdownHandler) Shutdown(ctx context.Context) error {
	sh.mu.Lock()
	services := make([]namedService, len(sh.services))
	copy(services, sh.services)
	sh.services = nil
	sh.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sh.timeout)
	defer cancel()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		s := services[i]

		done := make(chan error, 1)
		go func() { done <- s.closer.Close() }()

		select {
		case err := <-done:
			if err != nil {
				sh.logger.Error("Failed to shutdown service", zap.String("service", s.name), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
				continue
			}
			sh.logger.Debug("Service shutdown complete", zap.String("service", s.name))
		case <-ctx.Done():
			sh.logger.Error("Shutdown timeout for service", zap.String("service", s.name))
			errs = append(errs, fmt.Errorf("%s: shutdown timeout", s.name))
		}
	}
	return errors.Join(errs...)
}
