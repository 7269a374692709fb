// Package deepgram provides a Deepgram-backed speech recognition provider.
//
// The provider uses Deepgram's streaming WebSocket API in batch fashion: the
// whole clip is streamed, a CloseStream message asks Deepgram to flush, and
// every final result received before the server closes the connection is
// joined into one transcript.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"github.com/MrWong99/linguaccess/pkg/audio"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

const (
	deepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultLanguage  = "en"

	// chunkBytes is 250 ms of 16 kHz mono 16-bit audio.
	chunkBytes = 8000
)

// Compile-time assertion that Provider implements asr.Provider.
var _ asr.Provider = (*Provider)(nil)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithLanguage sets the language used when a request carries none.
func WithLanguage(language string) Option {
	return func(p *Provider) { p.language = language }
}

// WithEndpoint overrides the WebSocket endpoint.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) { p.endpoint = endpoint }
}

// WithKeywords boosts recognition of the given words. Useful for lesson
// vocabulary the model rarely sees.
func WithKeywords(words ...string) Option {
	return func(p *Provider) { p.keywords = append(p.keywords, words...) }
}

// Provider implements asr.Provider backed by the Deepgram streaming API.
type Provider struct {
	apiKey   string
	model    string
	language string
	endpoint string
	keywords []string
}

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:   apiKey,
		model:    defaultModel,
		language: defaultLanguage,
		endpoint: deepgramEndpoint,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// streamAudio is what gets sent over the socket.
type streamAudio struct {
	data []byte
	// pcm16k is true when data is raw 16 kHz mono linear16. Otherwise data
	// is a container file that Deepgram inspects itself.
	pcm16k bool
}

// Transcribe implements asr.Provider.
func (p *Provider) Transcribe(ctx context.Context, clip asr.Clip, language string) (string, error) {
	if len(clip.Data) == 0 {
		return "", asr.ErrEmptyAudio
	}

	in := streamAudio{data: clip.Data}
	if decoded, err := audio.Decode(clip.Data, clip.ContentType); err == nil {
		in = streamAudio{data: audio.ToWhisperPCM(decoded).Data, pcm16k: true}
	}

	lang := language
	if lang == "" {
		lang = p.language
	}
	wsURL, err := p.buildURL(lang, in.pcm16k)
	if err != nil {
		return "", fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return "", fmt.Errorf("deepgram: dial: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	// Results arrive while audio is still being written, so read concurrently.
	type readResult struct {
		text string
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		text, err := readFinals(ctx, conn)
		done <- readResult{text, err}
	}()

	if err := writeAudio(ctx, conn, in.data); err != nil {
		return "", err
	}

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		conn.Close(websocket.StatusNormalClosure, "transcription complete")
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("deepgram: %w", ctx.Err())
	}
}

// buildURL constructs the Deepgram streaming endpoint URL.
func (p *Provider) buildURL(language string, pcm16k bool) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("model", p.model)
	q.Set("language", language)
	q.Set("punctuate", "true")
	q.Set("interim_results", "false")
	if pcm16k {
		q.Set("encoding", "linear16")
		q.Set("sample_rate", strconv.Itoa(audio.WhisperSampleRate))
		q.Set("channels", strconv.Itoa(audio.WhisperChannels))
	}
	for _, kw := range p.keywords {
		q.Add("keyterm", kw)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func writeAudio(ctx context.Context, conn *websocket.Conn, data []byte) error {
	for off := 0; off < len(data); off += chunkBytes {
		end := min(off+chunkBytes, len(data))
		if err := conn.Write(ctx, websocket.MessageBinary, data[off:end]); err != nil {
			return fmt.Errorf("deepgram: send audio: %w", err)
		}
	}
	// Ask Deepgram to flush pending audio and close the stream.
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
		return fmt.Errorf("deepgram: send CloseStream: %w", err)
	}
	return nil
}

// readFinals collects final transcripts until the server closes the stream
// or sends its closing Metadata message.
func readFinals(ctx context.Context, conn *websocket.Conn) (string, error) {
	var parts []string
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return strings.Join(parts, " "), nil
			}
			return "", fmt.Errorf("deepgram: read: %w", err)
		}

		text, kind := parseDeepgramResponse(msg)
		switch kind {
		case messageFinal:
			if text != "" {
				parts = append(parts, text)
			}
		case messageMetadata:
			return strings.Join(parts, " "), nil
		case messageError:
			return "", fmt.Errorf("deepgram: server error: %s", text)
		}
	}
}

type messageKind int

const (
	messageIgnored messageKind = iota
	messageFinal
	messageMetadata
	messageError
)

// deepgramResponse is the JSON structure of Deepgram stream messages.
type deepgramResponse struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	Description string `json:"description"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// parseDeepgramResponse classifies a raw Deepgram WebSocket message. For
// final results the best alternative's transcript is returned; for errors
// the description.
func parseDeepgramResponse(data []byte) (string, messageKind) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", messageIgnored
	}
	switch resp.Type {
	case "Results":
		if !resp.IsFinal || len(resp.Channel.Alternatives) == 0 {
			return "", messageIgnored
		}
		return strings.TrimSpace(resp.Channel.Alternatives[0].Transcript), messageFinal
	case "Metadata":
		return "", messageMetadata
	case "Error":
		return resp.Description, messageError
	default:
		return "", messageIgnored
	}
}
