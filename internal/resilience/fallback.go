package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] failed or was
// skipped because its breaker is open.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures the breaker created for each entry of a
// [FallbackGroup]. CircuitBreaker.Name is overwritten with the entry name.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// EntryStatus is a point-in-time view of one entry in a [FallbackGroup].
type EntryStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// FallbackGroup holds a primary and any number of fallbacks of the same
// type. Calls go to the first entry whose breaker admits them; on failure the
// next entry is tried in registration order.
type FallbackGroup[T any] struct {
	cfg FallbackConfig

	mu      sync.RWMutex
	entries []*fallbackEntry[T]
}

// NewFallbackGroup returns a group whose first entry is primary.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends an entry tried after all previously added ones.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	entry := &fallbackEntry[T]{name: name, value: fallback, breaker: NewCircuitBreaker(cbCfg)}

	fg.mu.Lock()
	fg.entries = append(fg.entries, entry)
	fg.mu.Unlock()
}

// Len returns the number of entries including the primary.
func (fg *FallbackGroup[T]) Len() int {
	fg.mu.RLock()
	defer fg.mu.RUnlock()
	return len(fg.entries)
}

// Status reports every entry's breaker state in call order.
func (fg *FallbackGroup[T]) Status() []EntryStatus {
	entries := fg.snapshot()
	out := make([]EntryStatus, len(entries))
	for i, e := range entries {
		out[i] = EntryStatus{Name: e.name, State: e.breaker.State().String()}
	}
	return out
}

func (fg *FallbackGroup[T]) snapshot() []*fallbackEntry[T] {
	fg.mu.RLock()
	defer fg.mu.RUnlock()
	return append([]*fallbackEntry[T](nil), fg.entries...)
}

// Execute runs fn against each entry until one succeeds. It stops early when
// ctx is done. If nothing succeeds the returned error wraps [ErrAllFailed]
// and the last entry error.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult is [FallbackGroup.Execute] for calls that produce a value.
// It is a function because methods cannot declare type parameters.
func ExecuteWithResult[T, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for _, entry := range fg.snapshot() {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				return zero, err
			}
			return zero, fmt.Errorf("%w: %w", err, lastErr)
		}

		var result R
		err := entry.breaker.Execute(func() error {
			var callErr error
			result, callErr = fn(entry.value)
			return callErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = fmt.Errorf("%s: %w", entry.name, err)
		if errors.Is(err, ErrCircuitOpen) {
			slog.DebugContext(ctx, "skipping provider with open circuit", "provider", entry.name)
			continue
		}
		slog.WarnContext(ctx, "provider failed, trying next", "provider", entry.name, "error", err)
	}
	if lastErr == nil {
		return zero, ErrAllFailed
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
