package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// ErrProviderNotRegistered is returned by [Registry.CreateASR] when no
// factory has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// ASRFactory builds an ASR provider from its configuration entry.
type ASRFactory func(ProviderEntry) (asr.Provider, error)

// Registry maps provider names to constructors. It is safe for concurrent
// use.
type Registry struct {
	mu  sync.RWMutex
	asr map[string]ASRFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{asr: make(map[string]ASRFactory)}
}

// RegisterASR registers an ASR provider factory under name. Subsequent
// calls with the same name overwrite the previous registration.
func (r *Registry) RegisterASR(name string, factory ASRFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asr[name] = factory
}

// CreateASR instantiates the provider registered under entry.Name.
// Returns [ErrProviderNotRegistered] if there is none.
func (r *Registry) CreateASR(entry ProviderEntry) (asr.Provider, error) {
	r.mu.RLock()
	factory, ok := r.asr[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: asr/%q", ErrProviderNotRegistered, entry.Name)
	}
	p, err := factory(entry)
	if err != nil {
		return nil, fmt.Errorf("config: create asr/%q: %w", entry.Name, err)
	}
	return p, nil
}

// ASRNames returns the registered ASR provider names, sorted.
func (r *Registry) ASRNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.asr))
	for n := range r.asr {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// OptionString returns Options[key] as a string, or def when absent.
func (e ProviderEntry) OptionString(key, def string) string {
	if v, ok := e.Options[key].(string); ok {
		return v
	}
	return def
}

// OptionBool returns Options[key] as a bool, or def when absent or not a
// bool.
func (e ProviderEntry) OptionBool(key string, def bool) bool {
	if v, ok := e.Options[key].(bool); ok {
		return v
	}
	return def
}

// OptionInt returns Options[key] as an int, or def when absent. YAML
// integers and whole floats are accepted.
func (e ProviderEntry) OptionInt(key string, def int) int {
	switch v := e.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return def
}

// OptionDuration returns Options[key] parsed with time.ParseDuration, or def
// when absent or malformed.
func (e ProviderEntry) OptionDuration(key string, def time.Duration) time.Duration {
	s, ok := e.Options[key].(string)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// OptionStrings returns Options[key] as a string slice. A single string is
// returned as a one-element slice.
func (e ProviderEntry) OptionStrings(key string) []string {
	switch v := e.Options[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
