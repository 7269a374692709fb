package whisper_test

import (
	"context"
	"os"
	"testing"

	"github.com/MrWong99/linguaccess/pkg/provider/asr"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/whisper"
)

// testModelPath returns the path to a whisper model for integration tests.
// It reads from the WHISPER_MODEL_PATH environment variable. If unset the
// test is skipped.
func testModelPath(t *testing.T) string {
	t.Helper()
	p := os.Getenv("WHISPER_MODEL_PATH")
	if p == "" {
		t.Skip("WHISPER_MODEL_PATH not set; skipping native whisper test")
	}
	return p
}

func TestNewNative_EmptyPath_ReturnsError(t *testing.T) {
	if _, err := whisper.NewNative(""); err == nil {
		t.Fatal("expected error for empty model path, got nil")
	}
}

func TestNewNative_PreloadInvalidPath_ReturnsError(t *testing.T) {
	if _, err := whisper.NewNative("/nonexistent/path/to/model.bin", whisper.WithPreload(true)); err == nil {
		t.Fatal("expected error for invalid model path, got nil")
	}
}

func TestNewNative_LazyLoadDefersError(t *testing.T) {
	p, err := whisper.NewNative("/nonexistent/path/to/model.bin")
	if err != nil {
		t.Fatalf("lazy NewNative should not touch the model: %v", err)
	}
	defer p.Close()
	if p.Loaded() {
		t.Fatal("model reported loaded before first use")
	}

	_, err = p.Transcribe(context.Background(), asr.Clip{Data: makeSpeechWAV(1600), ContentType: "audio/wav"}, "en")
	if err == nil {
		t.Fatal("expected load error on first Transcribe")
	}
}

func TestNativeTranscribe_UndecodableClip(t *testing.T) {
	p, err := whisper.NewNative("/nonexistent/model.bin")
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), asr.Clip{Data: []byte("OggS"), ContentType: "audio/ogg"}, "en"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNativeTranscribe_WithModel(t *testing.T) {
	modelPath := testModelPath(t)
	p, err := whisper.NewNative(modelPath, whisper.WithPreload(true), whisper.WithMaxConcurrent(2))
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	defer p.Close()

	if !p.Loaded() {
		t.Fatal("preloaded model not reported as loaded")
	}
	// A pure tone has no words; the call must still succeed.
	if _, err := p.Transcribe(context.Background(), asr.Clip{Data: makeSpeechWAV(44100), ContentType: "audio/wav"}, "en-US"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}
