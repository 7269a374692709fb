// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"golang.org/x/sync/semaphore"

	"github.com/MrWong99/linguaccess/pkg/audio"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// Compile-time assertion that NativeProvider satisfies asr.Provider.
var _ asr.Provider = (*NativeProvider)(nil)

// NativeProvider implements asr.Provider using whisper.cpp Go bindings
// (CGO). The model is shared by all requests; every request gets its own
// whisper context.
type NativeProvider struct {
	modelPath string
	language  string
	preload   bool
	sem       *semaphore.Weighted

	mu    sync.Mutex
	model whisperlib.Model
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*nativeConfig)

type nativeConfig struct {
	language      string
	preload       bool
	maxConcurrent int64
}

// WithNativeLanguage sets the language used when a request carries none.
// Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(c *nativeConfig) { c.language = lang }
}

// WithPreload loads the model in NewNative instead of on the first request.
func WithPreload(preload bool) NativeOption {
	return func(c *nativeConfig) { c.preload = preload }
}

// WithMaxConcurrent caps the number of inferences running at once.
// Defaults to 1.
func WithMaxConcurrent(n int) NativeOption {
	return func(c *nativeConfig) { c.maxConcurrent = int64(n) }
}

// NewNative creates a NativeProvider for the model file at modelPath. With
// [WithPreload] the model is loaded immediately and load errors are returned
// here; otherwise it is loaded on first use. The caller must call Close when
// the provider is no longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	cfg := nativeConfig{language: defaultLanguage, maxConcurrent: 1}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxConcurrent < 1 {
		cfg.maxConcurrent = 1
	}

	p := &NativeProvider{
		modelPath: modelPath,
		language:  cfg.language,
		preload:   cfg.preload,
		sem:       semaphore.NewWeighted(cfg.maxConcurrent),
	}
	if p.preload {
		if _, err := p.loadModel(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Close releases the whisper model.
func (p *NativeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil
	}
	err := p.model.Close()
	p.model = nil
	return err
}

// Loaded reports whether the model is resident in memory.
func (p *NativeProvider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model != nil
}

// loadModel returns the shared model, loading it if needed. A failed load is
// retried on the next call.
func (p *NativeProvider) loadModel() (whisperlib.Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model != nil {
		return p.model, nil
	}
	model, err := whisperlib.New(p.modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", p.modelPath, err)
	}
	slog.Info("whisper model loaded", "path", p.modelPath)
	p.model = model
	return model, nil
}

// Transcribe implements asr.Provider. The clip must be decodable by
// [audio.Decode]. Inference itself cannot be interrupted; ctx is honoured
// while waiting for a free inference slot.
func (p *NativeProvider) Transcribe(ctx context.Context, clip asr.Clip, language string) (string, error) {
	if len(clip.Data) == 0 {
		return "", asr.ErrEmptyAudio
	}
	decoded, err := audio.Decode(clip.Data, clip.ContentType)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	samples := audio.PCMToFloat32(audio.ToWhisperPCM(decoded).Data)

	model, err := p.loadModel()
	if err != nil {
		return "", err
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("whisper: wait for inference slot: %w", err)
	}
	defer p.sem.Release(1)

	lang := asr.BaseLanguage(language)
	if lang == "" {
		lang = p.language
	}
	return infer(model, samples, lang)
}

// infer runs whisper.cpp inference in a fresh context and returns the
// concatenated segment text.
func infer(model whisperlib.Model, samples []float32, language string) (string, error) {
	// Contexts are not thread-safe; the model is.
	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
