package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/MrWong99/linguaccess/pkg/audio"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/openai"
)

type seenRequest struct {
	model    string
	language string
	filename string
	auth     string
}

func newFakeAPI(t *testing.T, status int, seen *atomic.Pointer[seenRequest]) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen != nil {
			seen.Store(&seenRequest{
				model:    r.FormValue("model"),
				language: r.FormValue("language"),
				filename: hdr.Filename,
				auth:     r.Header.Get("Authorization"),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "boom", "type": "server_error"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " I like cats. "})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_EmptyAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := openai.New("", ""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	var seen atomic.Pointer[seenRequest]
	srv := newFakeAPI(t, http.StatusOK, &seen)

	p, err := openai.New("sk-test", "", openai.WithBaseURL(srv.URL+"/"), openai.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wav := audio.EncodeWAV(make([]byte, 3200), 16000, 1)
	got, err := p.Transcribe(context.Background(), asr.Clip{Data: wav, ContentType: "audio/wav"}, "en-GB")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "I like cats." {
		t.Errorf("Transcribe = %q, want %q", got, "I like cats.")
	}

	req := seen.Load()
	if req == nil {
		t.Fatal("no request received")
	}
	if req.model != "whisper-1" {
		t.Errorf("model = %q, want whisper-1", req.model)
	}
	if req.language != "en" {
		t.Errorf("language = %q, want en", req.language)
	}
	if req.filename != "audio.wav" {
		t.Errorf("filename = %q, want audio.wav", req.filename)
	}
	if req.auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", req.auth)
	}
}

func TestTranscribe_APIError(t *testing.T) {
	t.Parallel()

	srv := newFakeAPI(t, http.StatusInternalServerError, nil)
	p, err := openai.New("sk-test", "gpt-4o-transcribe", openai.WithBaseURL(srv.URL+"/"), openai.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = p.Transcribe(context.Background(), asr.Clip{Data: []byte("ID3....."), ContentType: "audio/mpeg", Filename: "a.mp3"}, "")
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestTranscribe_EmptyClip(t *testing.T) {
	t.Parallel()

	p, _ := openai.New("sk-test", "")
	if _, err := p.Transcribe(context.Background(), asr.Clip{}, "en"); !errors.Is(err, asr.ErrEmptyAudio) {
		t.Errorf("err = %v, want ErrEmptyAudio", err)
	}
}
