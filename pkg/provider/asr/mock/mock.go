// Package mock provides a test double for the asr.Provider interface.
//
// Example:
//
//	p := &mock.Provider{Text: "i like cats"}
//	svc, _ := asr.NewService(asr.BackendFull, p)
//	text := svc.Transcribe(ctx, clip, "en-US")
//	_ = p.Calls()[0].Language // "en-US"
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// Ensure Provider implements asr.Provider at compile time.
var _ asr.Provider = (*Provider)(nil)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Clip is the clip passed to Transcribe. Its Data is a copy.
	Clip asr.Clip
	// Language is the language tag passed to Transcribe.
	Language string
}

// Provider is a mock implementation of asr.Provider.
type Provider struct {
	mu sync.Mutex

	// Text is returned by Transcribe when Err is nil.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Delay makes Transcribe wait before answering. The wait is abandoned
	// with ctx.Err() if ctx ends first.
	Delay time.Duration

	calls []TranscribeCall
}

// Transcribe records the call and returns Text, Err.
func (p *Provider) Transcribe(ctx context.Context, clip asr.Clip, language string) (string, error) {
	p.mu.Lock()
	clip.Data = append([]byte(nil), clip.Data...)
	p.calls = append(p.calls, TranscribeCall{Clip: clip, Language: language})
	text, err, delay := p.Text, p.Err, p.Delay
	p.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// Calls returns a snapshot of every recorded call. Thread-safe.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TranscribeCall(nil), p.calls...)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}
