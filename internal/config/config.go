// Package config provides the configuration schema, loader, hot-reload
// watcher and ASR provider registry for the pronunciation service.
package config

import (
	"log/slog"
	"time"

	"github.com/MrWong99/linguaccess/pkg/pronounce"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr     = ":8000"
	DefaultMaxUploadBytes = 10 << 20
	DefaultRequestTimeout = 30 * time.Second
	DefaultASRTimeout     = 20 * time.Second
	DefaultCacheTTL       = time.Hour
	DefaultServiceName    = "linguaaccess-ml"
)

// Config is the root configuration, usually loaded with [Load].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	ASR       ASRConfig       `yaml:"asr"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server binds (e.g. ":8000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`

	// CORSOrigins lists browser origins allowed to call the API. An entry of
	// "*" allows any origin.
	CORSOrigins []string `yaml:"cors_origins"`

	// MaxUploadBytes caps the size of an evaluate request body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// TLS enables HTTPS when set.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ASRConfig selects and tunes the speech recognition backend.
type ASRConfig struct {
	// Backend is "full" or "unavailable". Empty means unavailable, which
	// makes every transcript the placeholder.
	Backend string `yaml:"backend"`

	// Timeout bounds one transcription across all providers.
	Timeout time.Duration `yaml:"timeout"`

	// Primary is the first recogniser tried.
	Primary ProviderEntry `yaml:"primary"`

	// Fallbacks are tried in order when the primary fails.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`

	// CircuitBreaker tunes the per-provider breakers.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`

	// Cache configures the transcript cache.
	Cache CacheConfig `yaml:"cache"`

	// Preload loads local models at startup instead of on first request.
	Preload bool `yaml:"preload"`
}

// ParsedBackend returns Backend as an [asr.Backend].
func (c ASRConfig) ParsedBackend() (asr.Backend, error) {
	return asr.ParseBackend(c.Backend)
}

// ProviderEntry is the configuration block shared by all ASR providers.
// Name selects the factory in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider (e.g. "whisper", "openai").
	Name string `yaml:"name"`

	// APIKey authenticates against hosted APIs.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the provider (e.g. "whisper-1", "nova-2").
	// For whisper-native it is the path to the ggml model file.
	Model string `yaml:"model"`

	// Options holds provider-specific values not covered above.
	Options map[string]any `yaml:"options"`
}

// CircuitBreakerConfig mirrors resilience.CircuitBreakerConfig for YAML.
// Zero values select the breaker defaults.
type CircuitBreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// CacheConfig configures the transcript cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// RedisAddr selects a Redis store. Empty means an in-process store.
	RedisAddr     string `yaml:"redis_addr"`
	RedisUsername string `yaml:"redis_username"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// TTL is how long a transcript stays cached.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries caps the in-process store.
	MaxEntries int `yaml:"max_entries"`
}

// ScoringConfig tunes the pronunciation scorer. Nil pointers select the
// scorer defaults. All fields are hot-reloadable.
type ScoringConfig struct {
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`
	AccuracyWeight      *float64 `yaml:"accuracy_weight"`
	FluencyWeight       *float64 `yaml:"fluency_weight"`

	// Similarity names the word similarity metric: ratio, levenshtein,
	// jaro_winkler or phonetic. Empty means ratio.
	Similarity string `yaml:"similarity"`
}

// Scorer builds a [pronounce.Scorer] from c.
func (c ScoringConfig) Scorer() (*pronounce.Scorer, error) {
	var opts []pronounce.Option
	if c.SimilarityThreshold != nil {
		opts = append(opts, pronounce.WithSimilarityThreshold(*c.SimilarityThreshold))
	}
	if c.AccuracyWeight != nil || c.FluencyWeight != nil {
		acc, flu := pronounce.DefaultAccuracyWeight, pronounce.DefaultFluencyWeight
		if c.AccuracyWeight != nil {
			acc = *c.AccuracyWeight
		}
		if c.FluencyWeight != nil {
			flu = *c.FluencyWeight
		}
		opts = append(opts, pronounce.WithWeights(acc, flu))
	}
	if c.Similarity != "" {
		sim, err := pronounce.SimilarityByName(c.Similarity)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pronounce.WithSimilarity(sim))
	}
	return pronounce.NewScorer(opts...)
}

// TelemetryConfig configures OpenTelemetry resource attributes.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ASR.Timeout == 0 {
		cfg.ASR.Timeout = DefaultASRTimeout
	}
	if cfg.ASR.Cache.TTL == 0 {
		cfg.ASR.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}
