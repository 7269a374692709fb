package observe

import (
	"context"
	"errors"
	"time"

	"github.com/MrWong99/linguaccess/pkg/provider/asr/cache"
)

// instrumentedStore counts transcript cache lookups and writes.
type instrumentedStore struct {
	cache.Store
	name string
	m    *Metrics
}

// InstrumentStore wraps s so that every Get is counted as a hit, miss or
// error and every failed Set as a provider error. name labels the store in
// the provider attribute, e.g. "redis" or "memory".
func InstrumentStore(s cache.Store, name string, m *Metrics) cache.Store {
	return &instrumentedStore{Store: s, name: name, m: m}
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.Store.Get(ctx, key)
	switch {
	case err == nil:
		s.m.RecordProviderRequest(ctx, s.name, KindCache, "hit")
	case errors.Is(err, cache.ErrMiss):
		s.m.RecordProviderRequest(ctx, s.name, KindCache, "miss")
	default:
		s.m.RecordProviderRequest(ctx, s.name, KindCache, "error")
		s.m.RecordProviderError(ctx, s.name, KindCache)
	}
	return v, err
}

func (s *instrumentedStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := s.Store.Set(ctx, key, value, ttl)
	if err != nil {
		s.m.RecordProviderError(ctx, s.name, KindCache)
	}
	return err
}
