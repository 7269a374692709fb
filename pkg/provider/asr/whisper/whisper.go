// Package whisper provides whisper.cpp-backed speech recognition providers.
//
// [Provider] talks to a running whisper-server binary over its REST API
// (POST /inference). [NativeProvider] runs the model in-process through the
// whisper.cpp CGO bindings. Both convert uploads to the 16 kHz mono PCM
// whisper expects and send only the primary language subtag ("en" for
// "en-US").
//
// Usage:
//
//	p, err := whisper.New("http://localhost:8080", whisper.WithModel("base.en"))
//	text, err := p.Transcribe(ctx, asr.Clip{Data: wavBytes, ContentType: "audio/wav"}, "en-US")
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/linguaccess/pkg/audio"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

const (
	defaultLanguage = "en"
	defaultTimeout  = 30 * time.Second

	// maxErrorBody caps how much of a failed response is quoted in errors.
	maxErrorBody = 512
)

// Compile-time assertion that Provider implements asr.Provider.
var _ asr.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with. This is the default.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithLanguage sets the language used when a request carries none.
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider implements asr.Provider backed by a whisper.cpp HTTP server.
type Provider struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe implements asr.Provider. Clips that can be decoded are sent as
// 16 kHz mono WAV; anything else is forwarded untouched for the server to
// convert.
func (p *Provider) Transcribe(ctx context.Context, clip asr.Clip, language string) (string, error) {
	if len(clip.Data) == 0 {
		return "", asr.ErrEmptyAudio
	}

	payload, filename := prepareUpload(clip)

	lang := asr.BaseLanguage(language)
	if lang == "" {
		lang = p.language
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(payload); err != nil {
		return "", fmt.Errorf("whisper: write audio data: %w", err)
	}

	fields := [][2]string{
		{"language", lang},
		{"model", p.model},
		{"response_format", "json"},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("whisper: write %s field: %w", f[0], err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("whisper: server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var result struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("whisper: server error: %s", result.Error)
	}

	return strings.TrimSpace(result.Text), nil
}

// prepareUpload converts clip to 16 kHz mono WAV when it can be decoded.
func prepareUpload(clip asr.Clip) ([]byte, string) {
	decoded, err := audio.Decode(clip.Data, clip.ContentType)
	if err != nil {
		slog.Debug("whisper: forwarding undecoded upload", "content_type", clip.ContentType, "error", err)
		name := clip.Filename
		if name == "" {
			name = "audio"
		}
		return clip.Data, name
	}
	return audio.EncodeClipWAV(audio.ToWhisperPCM(decoded)), "audio.wav"
}
