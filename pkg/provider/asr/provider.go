// Package asr defines the Provider interface for automatic speech recognition
// backends and the Service that request handlers use to obtain transcripts.
//
// A provider wraps one recogniser (a whisper.cpp server, the in-process
// whisper.cpp bindings, the OpenAI transcription API, Deepgram) and turns a
// complete uploaded recording into text. Providers may fail; the [Service]
// built on top of them never does. When no recogniser is configured, or the
// configured one fails, the service answers with [Placeholder] so that
// evaluation always completes.
package asr

import (
	"context"
	"errors"
)

// ErrEmptyAudio is returned by providers when a clip carries no audio bytes.
var ErrEmptyAudio = errors.New("asr: empty audio")

// Clip is an uploaded recording exactly as received.
type Clip struct {
	// Data holds the raw file bytes (WAV, MP3, ...).
	Data []byte

	// ContentType is the MIME type declared by the uploader, e.g. "audio/wav".
	ContentType string

	// Filename is the uploader's file name, if any. Informational only.
	Filename string
}

// Provider is the abstraction over any speech recognition backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Transcribe returns the text spoken in clip. language is a BCP-47 tag
	// such as "en-US"; an empty string lets the backend detect the language
	// if it can.
	//
	// Returns an error if the backend cannot produce a transcript, including
	// when ctx is cancelled or its deadline passes.
	Transcribe(ctx context.Context, clip Clip, language string) (string, error)
}

// ProviderFunc adapts an ordinary function to the [Provider] interface.
type ProviderFunc func(ctx context.Context, clip Clip, language string) (string, error)

// Transcribe calls f.
func (f ProviderFunc) Transcribe(ctx context.Context, clip Clip, language string) (string, error) {
	return f(ctx, clip, language)
}
