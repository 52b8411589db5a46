package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/domain"
)

func newOCRForTest(t *testing.T, handler http.HandlerFunc) *OCRService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOCRService(config.Config{
		OCRAPIKey:   "test-key",
		OCREndpoint: srv.URL,
	})
}

func imageCapture(name string) domain.RawCapture {
	return domain.RawCapture{
		Data:     []byte("fake image bytes"),
		Kind:     domain.MediaImage,
		Filename: name,
	}
}

func TestExtractTextSuccess(t *testing.T) {
	var gotForm map[string]string

	svc := newOCRForTest(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"language":          r.PostFormValue("language"),
			"OCREngine":         r.PostFormValue("OCREngine"),
			"detectOrientation": r.PostFormValue("detectOrientation"),
			"scale":             r.PostFormValue("scale"),
			"base64Image":       r.PostFormValue("base64Image"),
		}
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"Ravi learned fractions using an orange."}]}`))
	})

	text, err := svc.ExtractText(context.Background(), imageCapture("sheet.JPEG"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "Ravi learned fractions using an orange." {
		t.Fatalf("text = %q", text)
	}

	if gotForm["language"] != "eng" || gotForm["OCREngine"] != "2" ||
		gotForm["detectOrientation"] != "true" || gotForm["scale"] != "true" {
		t.Fatalf("unexpected form fields: %v", gotForm)
	}
	if !strings.HasPrefix(gotForm["base64Image"], "data:image/jpg;base64,") {
		t.Fatalf("jpeg should be sent as jpg data URL, got prefix %q", gotForm["base64Image"][:30])
	}
}

func TestExtractTextNoParsedResults(t *testing.T) {
	svc := newOCRForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ParsedResults":[],"ErrorMessage":["Unable to recognize the file type"]}`))
	})

	_, err := svc.ExtractText(context.Background(), imageCapture("sheet.png"))

	var recErr *domain.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
	if !strings.Contains(recErr.Detail, "Unable to recognize") {
		t.Fatalf("service detail should be preserved, got %q", recErr.Detail)
	}
}

func TestExtractTextPerResultError(t *testing.T) {
	svc := newOCRForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"","ErrorMessage":"image too blurry"}]}`))
	})

	_, err := svc.ExtractText(context.Background(), imageCapture("sheet.png"))

	var recErr *domain.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
	if recErr.Detail != "image too blurry" {
		t.Fatalf("detail = %q", recErr.Detail)
	}
}

// Whitespace-only text is a failure, never an empty success.
func TestExtractTextWhitespaceOnly(t *testing.T) {
	svc := newOCRForTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"  \n\t "}]}`))
	})

	text, err := svc.ExtractText(context.Background(), imageCapture("sheet.png"))
	if err == nil {
		t.Fatalf("expected error, got text %q", text)
	}
	if !domain.IsRecognition(err) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
}

func TestExtractTextServerError(t *testing.T) {
	svc := newOCRForTest(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	})

	_, err := svc.ExtractText(context.Background(), imageCapture("sheet.png"))
	if !domain.IsRecognition(err) {
		t.Fatalf("expected RecognitionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("service detail should be preserved, got %v", err)
	}
}
