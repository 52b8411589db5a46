package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/domain"
)

const ocrRequestTimeout = 2 * time.Minute

// OCRService extracts text from worksheet images through the OCR.space
// parse endpoint. A single attempt per capture; every failure surfaces
// as a domain.RecognitionError with the service detail intact.
type OCRService struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewOCRService(cfg config.Config) *OCRService {
	return &OCRService{
		apiKey:   cfg.OCRAPIKey,
		endpoint: cfg.OCREndpoint,
		httpClient: &http.Client{
			Timeout: ocrRequestTimeout,
		},
	}
}

type ocrResponse struct {
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// ExtractText submits the image with the handwriting-tuned engine
// (engine 2, auto-orientation, auto-scale, English) and returns the
// first parsed result. Whitespace-only text counts as a failure, not
// an empty success.
func (s *OCRService) ExtractText(ctx context.Context, capture domain.RawCapture) (string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return "", &domain.RecognitionError{Op: "ocr", Detail: "ocr api key is not configured"}
	}

	form := url.Values{}
	form.Set("apikey", s.apiKey)
	form.Set("language", "eng")
	form.Set("isOverlayRequired", "false")
	form.Set("OCREngine", "2")
	form.Set("detectOrientation", "true")
	form.Set("scale", "true")
	form.Set("base64Image", dataURL(capture))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &domain.RecognitionError{Op: "ocr", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &domain.RecognitionError{Op: "ocr", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return "", &domain.RecognitionError{
			Op:     "ocr",
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &domain.RecognitionError{Op: "ocr", Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(payload.ParsedResults) == 0 {
		detail := "no parsed results returned"
		if len(payload.ErrorMessage) > 0 {
			detail = rawMessageString(payload.ErrorMessage)
		}
		return "", &domain.RecognitionError{Op: "ocr", Detail: detail}
	}

	result := payload.ParsedResults[0]
	if result.ErrorMessage != "" {
		return "", &domain.RecognitionError{Op: "ocr", Detail: result.ErrorMessage}
	}

	if strings.TrimSpace(result.ParsedText) == "" {
		return "", &domain.RecognitionError{Op: "ocr", Detail: "no text was detected in the image"}
	}

	return result.ParsedText, nil
}

// dataURL encodes the capture as data:image/<ext>;base64,<data>. The
// service treats jpeg and jpg as distinct, so jpeg is normalized.
func dataURL(capture domain.RawCapture) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(capture.Filename)), ".")
	if ext == "jpeg" {
		ext = "jpg"
	}
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("data:image/%s;base64,%s", ext, base64.StdEncoding.EncodeToString(capture.Data))
}

// rawMessageString flattens the service's ErrorMessage field, which is
// sometimes a string and sometimes a list of strings.
func rawMessageString(raw json.RawMessage) string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return strings.Join(many, "; ")
	}
	return strings.TrimSpace(string(raw))
}
