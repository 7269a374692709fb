package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/cache"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/mock"
)

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("store down")
}
func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) Ping(context.Context) error { return errors.New("store down") }

func TestCachingProvider_HitSkipsProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := &mock.Provider{Text: "i like cats"}
	c := cache.New(p, cache.NewMemoryStore(), cache.WithTTL(time.Minute))

	clip := asr.Clip{Data: []byte("audio-1")}
	for range 3 {
		got, err := c.Transcribe(ctx, clip, "en-US")
		if err != nil {
			t.Fatalf("Transcribe: %v", err)
		}
		if got != "i like cats" {
			t.Fatalf("Transcribe = %q", got)
		}
	}
	if n := len(p.Calls()); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}

	// Different language or audio is a different entry.
	_, _ = c.Transcribe(ctx, clip, "de-DE")
	_, _ = c.Transcribe(ctx, asr.Clip{Data: []byte("audio-2")}, "en-US")
	if n := len(p.Calls()); n != 3 {
		t.Errorf("provider calls = %d, want 3", n)
	}
}

func TestCachingProvider_ErrorsAndEmptyNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := cache.NewMemoryStore()

	failing := &mock.Provider{Err: errors.New("backend down")}
	c := cache.New(failing, store)
	if _, err := c.Transcribe(ctx, asr.Clip{Data: []byte("x")}, "en"); err == nil {
		t.Fatal("expected provider error to propagate")
	}

	silent := &mock.Provider{Text: ""}
	c = cache.New(silent, store)
	for range 2 {
		if _, err := c.Transcribe(ctx, asr.Clip{Data: []byte("x")}, "en"); err != nil {
			t.Fatalf("Transcribe: %v", err)
		}
	}
	if n := len(silent.Calls()); n != 2 {
		t.Errorf("empty transcript was cached: provider calls = %d, want 2", n)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries, want 0", store.Len())
	}
}

func TestCachingProvider_StoreFailureFallsThrough(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Text: "hello"}
	c := cache.New(p, failingStore{})

	got, err := c.Transcribe(context.Background(), asr.Clip{Data: []byte("x")}, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "hello" {
		t.Errorf("Transcribe = %q, want hello", got)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	a := cache.Key(asr.Clip{Data: []byte("abc")}, "en-US")
	if len(a) != 64 {
		t.Fatalf("key length = %d, want 64 hex chars", len(a))
	}
	if b := cache.Key(asr.Clip{Data: []byte("abc"), ContentType: "audio/wav"}, " EN-us "); a != b {
		t.Error("key should ignore content type, case and surrounding space")
	}
	if c := cache.Key(asr.Clip{Data: []byte("abd")}, "en-US"); a == c {
		t.Error("different audio must give different keys")
	}
}
