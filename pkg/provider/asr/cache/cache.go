// Package cache memoises transcripts so that re-submitting the same recording
// does not hit the speech recogniser again.
//
// [CachingProvider] wraps any asr.Provider. Entries are keyed by the SHA-256
// of the audio bytes together with the language tag and kept in a [Store]:
// [RedisStore] for deployments with several replicas, [MemoryStore] for a
// single process.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// ErrMiss is returned by Store.Get when no live entry exists for a key.
var ErrMiss = errors.New("cache: miss")

// DefaultTTL is used when a CachingProvider is built without [WithTTL].
const DefaultTTL = time.Hour

// Store is a string key/value store with per-entry expiry.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Compile-time assertion that CachingProvider implements asr.Provider.
var _ asr.Provider = (*CachingProvider)(nil)

// CachingProvider is an asr.Provider decorator that consults a Store before
// delegating. Store failures are logged and never fail a transcription.
type CachingProvider struct {
	next  asr.Provider
	store Store
	ttl   time.Duration
}

// Option is a functional option for [New].
type Option func(*CachingProvider)

// WithTTL sets how long transcripts are kept.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachingProvider) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New wraps next with a cache backed by store.
func New(next asr.Provider, store Store, opts ...Option) *CachingProvider {
	c := &CachingProvider{next: next, store: store, ttl: DefaultTTL}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Store returns the backing store.
func (c *CachingProvider) Store() Store { return c.store }

// Key derives the cache key for a clip and language.
func Key(clip asr.Clip, language string) string {
	h := sha256.New()
	h.Write(clip.Data)
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(language))))
	return hex.EncodeToString(h.Sum(nil))
}

// Transcribe implements asr.Provider. Only successful, non-empty
// transcripts are stored.
func (c *CachingProvider) Transcribe(ctx context.Context, clip asr.Clip, language string) (string, error) {
	key := Key(clip, language)

	text, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		slog.DebugContext(ctx, "asr cache hit", "key", key[:12])
		return text, nil
	case !errors.Is(err, ErrMiss):
		slog.WarnContext(ctx, "asr cache lookup failed", "error", err)
	}

	text, err = c.next.Transcribe(ctx, clip, language)
	if err != nil {
		return "", err
	}
	if text == "" {
		return text, nil
	}

	if err := c.store.Set(ctx, key, text, c.ttl); err != nil {
		slog.WarnContext(ctx, "asr cache store failed", "error", err)
	}
	return text, nil
}
