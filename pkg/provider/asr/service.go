package asr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Placeholder is the transcript returned whenever no real transcription is
// available. It is ordinary text to the scorer.
const Placeholder = "[transcription unavailable – connect ASR service]"

// Backend selects how a [Service] obtains transcripts. It is decided once at
// startup from configuration.
type Backend int

const (
	// BackendUnavailable answers every request with [Placeholder].
	BackendUnavailable Backend = iota

	// BackendFull delegates to a real [Provider].
	BackendFull
)

// String returns the configuration name of the backend.
func (b Backend) String() string {
	switch b {
	case BackendFull:
		return "full"
	case BackendUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend parses a configuration value ("full" or "unavailable").
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return BackendFull, nil
	case "unavailable", "none", "":
		return BackendUnavailable, nil
	default:
		return BackendUnavailable, fmt.Errorf("asr: unknown backend %q (want full or unavailable)", s)
	}
}

// Observer receives the outcome of every transcription handled by a
// [Service]. Implementations must be safe for concurrent use.
type Observer interface {
	// ObserveTranscription is called after each provider call.
	ObserveTranscription(ctx context.Context, provider string, elapsed time.Duration, err error)

	// ObservePlaceholder is called whenever the service answers with
	// [Placeholder]. reason is "unavailable", "error" or "timeout".
	ObservePlaceholder(ctx context.Context, reason string)
}

// Service is the transcription capability handed to request handlers. It
// never fails: provider errors and timeouts degrade to [Placeholder].
//
// A Service is immutable after construction and safe for concurrent use.
type Service struct {
	backend  Backend
	provider Provider
	name     string
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger
}

// ServiceOption is a functional option for [NewService].
type ServiceOption func(*Service)

// WithTimeout bounds each provider call. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithProviderName sets the provider name used in logs and metrics.
func WithProviderName(name string) ServiceOption {
	return func(s *Service) { s.name = name }
}

// WithObserver registers an observer for transcription outcomes.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService builds a Service for backend. p is required for [BackendFull]
// and ignored for [BackendUnavailable].
func NewService(backend Backend, p Provider, opts ...ServiceOption) (*Service, error) {
	switch backend {
	case BackendFull:
		if p == nil {
			return nil, errors.New("asr: full backend requires a provider")
		}
	case BackendUnavailable:
		p = nil
	default:
		return nil, fmt.Errorf("asr: invalid backend %v", backend)
	}

	s := &Service{
		backend:  backend,
		provider: p,
		name:     "asr",
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Unavailable returns a Service that always answers with [Placeholder].
func Unavailable() *Service {
	s, _ := NewService(BackendUnavailable, nil)
	return s
}

// Backend reports the backend the service was built with.
func (s *Service) Backend() Backend { return s.backend }

// ProviderName reports the name of the wrapped provider.
func (s *Service) ProviderName() string { return s.name }

// Transcribe returns the text spoken in clip, or [Placeholder] if no
// transcript can be obtained.
func (s *Service) Transcribe(ctx context.Context, clip Clip, language string) string {
	if s.backend != BackendFull {
		s.logger.DebugContext(ctx, "asr unavailable, returning placeholder transcript")
		s.placeholder(ctx, "unavailable")
		return Placeholder
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.provider.Transcribe(callCtx, clip, language)
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveTranscription(ctx, s.name, elapsed, err)
	}

	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		s.logger.WarnContext(ctx, "asr transcription failed, returning placeholder transcript",
			"provider", s.name,
			"language", language,
			"bytes", len(clip.Data),
			"elapsed", elapsed,
			"reason", reason,
			"error", err,
		)
		s.placeholder(ctx, reason)
		return Placeholder
	}

	text = strings.TrimSpace(text)
	s.logger.DebugContext(ctx, "asr transcription complete",
		"provider", s.name,
		"language", language,
		"elapsed", elapsed,
		"chars", len(text),
	)
	return text
}

func (s *Service) placeholder(ctx context.Context, reason string) {
	if s.observer != nil {
		s.observer.ObservePlaceholder(ctx, reason)
	}
}
