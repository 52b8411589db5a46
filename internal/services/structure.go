package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/domain"
)

const structureRequestTimeout = 2 * time.Minute

var structureSystemPrompt = strings.TrimSpace(`
You are an AI assistant for a learning observation system. You receive raw text
extracted from a handwritten or printed observation sheet. Structure it into a
JSON object with exactly these fields:
  studentName (string), studentId (string), className (string), date (string),
  observations (string), strengths (array of strings),
  areasOfDevelopment (array of strings), recommendations (array of strings).
Copy the observed facts faithfully; do not invent content. Leave any field you
cannot determine as an empty string or empty array. Respond with JSON only.
`)

// StructureService turns extracted worksheet text into a
// StructuredObservation through an OpenAI-compatible chat completion
// (Groq) in JSON mode, at low temperature. No field-level validation
// happens here; missing fields simply stay empty.
type StructureService struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
}

func NewStructureService(cfg config.Config) *StructureService {
	return &StructureService{
		apiKey:   cfg.GroqAPIKey,
		endpoint: cfg.GroqEndpoint,
		model:    cfg.GroqModel,
		httpClient: &http.Client{
			Timeout: structureRequestTimeout,
		},
	}
}

func (s *StructureService) Structure(ctx context.Context, text string) (domain.StructuredObservation, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return domain.StructuredObservation{}, &domain.StructuringError{Detail: "groq api key is not configured"}
	}

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": structureSystemPrompt},
			{"role": "user", "content": "Extract and structure the following text from an observation sheet: " + text},
		},
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return domain.StructuredObservation{}, &domain.StructuringError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, buf)
	if err != nil {
		return domain.StructuredObservation{}, &domain.StructuringError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.StructuredObservation{}, &domain.StructuringError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return domain.StructuredObservation{}, &domain.StructuringError{
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return domain.StructuredObservation{}, &domain.StructuringError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(response.Choices) == 0 {
		return domain.StructuredObservation{}, &domain.StructuringError{Detail: "no choices returned"}
	}

	var structured domain.StructuredObservation
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &structured); err != nil {
		return domain.StructuredObservation{}, &domain.StructuringError{Err: fmt.Errorf("parse structured reply: %w", err)}
	}

	structured.Normalize()
	return structured, nil
}
