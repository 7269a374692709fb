package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// ValidProviderNames lists the ASR provider names the service ships with.
// [Validate] warns about names outside this list; third-party factories may
// still be registered under them.
var ValidProviderNames = []string{"whisper", "whisper-native", "openai", "deepgram"}

// LoadDotEnv loads environment variables from the given .env files, or from
// ".env" when none are given. Missing files are ignored; variables already
// set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %q: %w", p, err)
		}
		slog.Debug("loaded environment file", "path", p)
	}
	return nil
}

// Load reads the YAML file at path and returns a validated [Config] with
// defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r. See [LoadBytes].
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes expands ${VAR} references from the environment, decodes the YAML
// strictly, applies defaults and validates the result.
func LoadBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg is coherent. It returns a joined error listing
// every problem found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must not be negative, got %d", cfg.Server.MaxUploadBytes))
	}
	if cfg.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must not be negative, got %s", cfg.Server.RequestTimeout))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// ASR
	backend, err := cfg.ASR.ParsedBackend()
	if err != nil {
		errs = append(errs, fmt.Errorf("asr.backend: %w", err))
	}
	if backend == asr.BackendFull && cfg.ASR.Primary.Name == "" {
		errs = append(errs, errors.New("asr.primary.name is required when asr.backend is full"))
	}
	if backend == asr.BackendUnavailable && cfg.ASR.Primary.Name != "" {
		slog.Warn("asr.primary is configured but asr.backend is unavailable; transcripts will be placeholders",
			"provider", cfg.ASR.Primary.Name)
	}
	if cfg.ASR.Timeout < 0 {
		errs = append(errs, fmt.Errorf("asr.timeout must not be negative, got %s", cfg.ASR.Timeout))
	}
	validateProviderName("asr.primary", cfg.ASR.Primary.Name)
	for i, fb := range cfg.ASR.Fallbacks {
		prefix := fmt.Sprintf("asr.fallbacks[%d]", i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		validateProviderName(prefix, fb.Name)
	}
	if cb := cfg.ASR.CircuitBreaker; cb.MaxFailures < 0 || cb.HalfOpenMax < 0 || cb.ResetTimeout < 0 {
		errs = append(errs, errors.New("asr.circuit_breaker values must not be negative"))
	}
	if cfg.ASR.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("asr.cache.ttl must not be negative, got %s", cfg.ASR.Cache.TTL))
	}
	if cfg.ASR.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("asr.cache.max_entries must not be negative, got %d", cfg.ASR.Cache.MaxEntries))
	}

	// Scoring
	if _, err := cfg.Scoring.Scorer(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is not in [ValidProviderNames].
func validateProviderName(field, name string) {
	if name == "" || slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown asr provider name; may be a typo or third-party provider",
		"field", field,
		"name", name,
		"known", ValidProviderNames,
	)
}
