package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/domain"
)

func newTranscribeForTest(t *testing.T, handler http.Handler, interval, timeout time.Duration) *TranscribeService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewTranscribeService(config.Config{
		AssemblyAIAPIKey:  "test-key",
		AssemblyAIBaseURL: srv.URL,
		PollInterval:      interval,
		TranscribeTimeout: timeout,
	})
}

func audioCapture() domain.RawCapture {
	return domain.RawCapture{
		Data:     []byte("fake audio bytes"),
		Kind:     domain.MediaAudio,
		Filename: "session.mp3",
	}
}

func TestTranscribePollsUntilCompleted(t *testing.T) {
	var polls atomic.Int32
	interval := 10 * time.Millisecond

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/1"})
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode transcript payload: %v", err)
		}
		if payload["audio_url"] != "https://cdn.example/upload/1" || payload["language_code"] != "en" {
			t.Errorf("unexpected transcript payload: %v", payload)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
	})
	mux.HandleFunc("GET /transcript/job-1", func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)
		if n <= 3 {
			fmt.Fprintf(w, `{"status":"processing","percent_done":%d}`, n*25)
			return
		}
		w.Write([]byte(`{"status":"completed","text":"Hello world"}`))
	})

	svc := newTranscribeForTest(t, mux, interval, 5*time.Second)

	start := time.Now()
	text, err := svc.Transcribe(context.Background(), audioCapture())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Hello world" {
		t.Fatalf("text = %q", text)
	}

	if got := polls.Load(); got != 4 {
		t.Fatalf("expected 4 polls (three processing, one completed), got %d", got)
	}
	if elapsed := time.Since(start); elapsed < 3*interval {
		t.Fatalf("expected three interval waits (>= %v), elapsed %v", 3*interval, elapsed)
	}
}

// A failed upload stops the run before any transcript call is made.
func TestTranscribeUploadFailure(t *testing.T) {
	var transcriptCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		transcriptCalls.Add(1)
	})

	svc := newTranscribeForTest(t, mux, 10*time.Millisecond, time.Second)

	_, err := svc.Transcribe(context.Background(), audioCapture())

	var recErr *domain.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
	if recErr.Op != "upload" {
		t.Fatalf("op = %q, want upload", recErr.Op)
	}
	if !strings.Contains(recErr.Detail, "storage unavailable") {
		t.Fatalf("response body should be the failure detail, got %q", recErr.Detail)
	}
	if transcriptCalls.Load() != 0 {
		t.Fatalf("transcript endpoint should not have been called")
	}
}

func TestTranscribeJobError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "u"})
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-2"})
	})
	mux.HandleFunc("GET /transcript/job-2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","error":"audio is silent"}`))
	})

	svc := newTranscribeForTest(t, mux, 10*time.Millisecond, time.Second)

	_, err := svc.Transcribe(context.Background(), audioCapture())

	var recErr *domain.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
	if recErr.Detail != "audio is silent" {
		t.Fatalf("detail = %q", recErr.Detail)
	}
}

// The poll loop is bounded: a job that never finishes surfaces as a
// timeout RecognitionError rather than hanging forever.
func TestTranscribeDeadline(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "u"})
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-3"})
	})
	mux.HandleFunc("GET /transcript/job-3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"processing","percent_done":10}`))
	})

	svc := newTranscribeForTest(t, mux, 10*time.Millisecond, 60*time.Millisecond)

	_, err := svc.Transcribe(context.Background(), audioCapture())

	var recErr *domain.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
	if recErr.Op != "timeout" {
		t.Fatalf("op = %q, want timeout", recErr.Op)
	}
}

func TestTranscribeCompletedEmptyText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "u"})
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-4"})
	})
	mux.HandleFunc("GET /transcript/job-4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"completed","text":"   "}`))
	})

	svc := newTranscribeForTest(t, mux, 10*time.Millisecond, time.Second)

	_, err := svc.Transcribe(context.Background(), audioCapture())
	if !domain.IsRecognition(err) {
		t.Fatalf("whitespace-only transcript must fail, got %v", err)
	}
}
