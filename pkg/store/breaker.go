package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/types"
)

// BreakerStore wraps a Store with circuit breaking so a failing backend
// rejects operations fast instead of stalling every graph mutation behind
// the write lock.
type BreakerStore struct {
	inner  Store
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreakerStore wraps inner with a circuit breaker tuned by cfg.
func NewBreakerStore(inner Store, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerStore {
	if logger == nil {
		logger = slog.Default()
	}

	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}

	st := gobreaker.Settings{
		Name:        "store",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("storage circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &BreakerStore{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Load implements Store.
func (s *BreakerStore) Load(ctx context.Context) (*types.KnowledgeGraph, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Load(ctx)
	})
	if err != nil {
		return nil, breakerErr("load", err)
	}
	return result.(*types.KnowledgeGraph), nil
}

// Save implements Store.
func (s *BreakerStore) Save(ctx context.Context, graph *types.KnowledgeGraph) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Save(ctx, graph)
	})
	if err != nil {
		return breakerErr("save", err)
	}
	return nil
}

// Close bypasses the breaker; shutdown should always reach the backend.
func (s *BreakerStore) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

// breakerErr keeps backend errors as-is and folds the breaker's own refusals
// into the storage error kind.
func breakerErr(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %v", types.ErrStorage, op, err)
	}
	return err
}
