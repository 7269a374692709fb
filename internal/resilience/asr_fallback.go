package resilience

import (
	"context"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

var _ asr.Provider = (*ASRFallback)(nil)

// ASRFallback is an asr.Provider that tries a primary recogniser and then
// each fallback in turn, skipping any whose breaker is open.
type ASRFallback struct {
	group *FallbackGroup[asr.Provider]
}

// NewASRFallback returns an ASRFallback with primary as the first recogniser.
func NewASRFallback(primary asr.Provider, primaryName string, cfg FallbackConfig) *ASRFallback {
	return &ASRFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another recogniser, tried after the existing ones.
func (f *ASRFallback) AddFallback(name string, p asr.Provider) {
	f.group.AddFallback(name, p)
}

// Status reports the breaker state of every recogniser in call order.
func (f *ASRFallback) Status() []EntryStatus {
	return f.group.Status()
}

// Transcribe implements asr.Provider.
func (f *ASRFallback) Transcribe(ctx context.Context, clip asr.Clip, language string) (string, error) {
	return ExecuteWithResult(ctx, f.group, func(p asr.Provider) (string, error) {
		return p.Transcribe(ctx, clip, language)
	})
}
