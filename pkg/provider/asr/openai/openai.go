// Package openai provides a speech recognition provider backed by the OpenAI
// audio transcription API.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/MrWong99/linguaccess/pkg/audio"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = oai.AudioModelWhisper1

// Ensure Provider implements the asr.Provider interface.
var _ asr.Provider = (*Provider)(nil)

// Provider implements asr.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	maxRetries   int
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Any
// OpenAI-compatible transcription server can be used this way.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) { c.organization = org }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMaxRetries sets how often the client retries failed requests.
// Negative values keep the client default.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n }
}

// New constructs a new OpenAI transcription Provider.
// If model is empty, DefaultModel (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai asr: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{maxRetries: -1}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}
	if cfg.maxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Transcribe implements asr.Provider. Decodable clips are uploaded as 16 kHz
// mono WAV to keep requests small; other formats are uploaded as received
// since the API accepts most common containers.
func (p *Provider) Transcribe(ctx context.Context, clip asr.Clip, language string) (string, error) {
	if len(clip.Data) == 0 {
		return "", asr.ErrEmptyAudio
	}

	data, filename, contentType := clip.Data, clip.Filename, clip.ContentType
	if decoded, err := audio.Decode(clip.Data, clip.ContentType); err == nil {
		data = audio.EncodeClipWAV(audio.ToWhisperPCM(decoded))
		filename, contentType = "audio.wav", "audio/wav"
	}
	if filename == "" {
		filename = "audio"
	}

	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(data), filename, contentType),
		Model: oai.AudioModel(p.model),
	}
	if lang := asr.BaseLanguage(language); lang != "" {
		params.Language = param.NewOpt(lang)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai asr: transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
