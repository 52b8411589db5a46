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

	"github.com/rs/zerolog/log"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/domain"
)

// TranscribeService drives the AssemblyAI two-phase protocol: upload
// the raw audio, create a transcription job, then poll the job until
// it reaches a terminal state. The poll loop runs under an explicit
// deadline; the abandoned server-side job is left to finish on its own
// when the caller goes away.
type TranscribeService struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
}

func NewTranscribeService(cfg config.Config) *TranscribeService {
	return &TranscribeService{
		apiKey:       cfg.AssemblyAIAPIKey,
		baseURL:      strings.TrimSuffix(cfg.AssemblyAIBaseURL, "/"),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.TranscribeTimeout,
		httpClient:   &http.Client{},
	}
}

// Transcribe returns the finished transcript text, or a
// domain.RecognitionError naming the phase that failed. A non-success
// upload response stops the run before any transcript call is made.
func (s *TranscribeService) Transcribe(ctx context.Context, capture domain.RawCapture) (string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return "", &domain.RecognitionError{Op: "upload", Detail: "assemblyai api key is not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uploadURL, err := s.upload(ctx, capture.Data)
	if err != nil {
		return "", err
	}

	jobID, err := s.createTranscript(ctx, uploadURL)
	if err != nil {
		return "", err
	}

	return s.poll(ctx, jobID)
}

func (s *TranscribeService) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", &domain.RecognitionError{Op: "upload", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &domain.RecognitionError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &domain.RecognitionError{Op: "upload", Detail: strings.TrimSpace(string(body))}
	}

	var payload struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &domain.RecognitionError{Op: "upload", Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.UploadURL == "" {
		return "", &domain.RecognitionError{Op: "upload", Detail: "service returned no upload_url"}
	}

	return payload.UploadURL, nil
}

func (s *TranscribeService) createTranscript(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"audio_url":     audioURL,
		"language_code": "en",
	})
	if err != nil {
		return "", &domain.RecognitionError{Op: "transcript", Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", &domain.RecognitionError{Op: "transcript", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &domain.RecognitionError{Op: "transcript", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", &domain.RecognitionError{Op: "transcript", Detail: strings.TrimSpace(string(raw))}
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &domain.RecognitionError{Op: "transcript", Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.ID == "" {
		return "", &domain.RecognitionError{Op: "transcript", Detail: "service returned no job id"}
	}

	return payload.ID, nil
}

func (s *TranscribeService) poll(ctx context.Context, jobID string) (string, error) {
	for {
		job, err := s.fetchJob(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch job.Status {
		case domain.JobStatusCompleted:
			if strings.TrimSpace(job.Text) == "" {
				return "", &domain.RecognitionError{Op: "poll", Detail: "transcription completed with empty text"}
			}
			return job.Text, nil
		case domain.JobStatusError:
			detail := job.Error
			if detail == "" {
				detail = "unknown error"
			}
			return "", &domain.RecognitionError{Op: "poll", Detail: detail}
		}

		log.Debug().Str("job", jobID).Str("status", job.Status).Float64("percent", job.PercentDone).Msg("transcription in progress")

		select {
		case <-ctx.Done():
			return "", &domain.RecognitionError{Op: "timeout", Detail: "transcription did not finish in time", Err: ctx.Err()}
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *TranscribeService) fetchJob(ctx context.Context, jobID string) (domain.TranscriptionJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return domain.TranscriptionJob{}, &domain.RecognitionError{Op: "poll", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.TranscriptionJob{}, &domain.RecognitionError{Op: "poll", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return domain.TranscriptionJob{}, &domain.RecognitionError{Op: "poll", Detail: strings.TrimSpace(string(raw))}
	}

	var job domain.TranscriptionJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return domain.TranscriptionJob{}, &domain.RecognitionError{Op: "poll", Err: fmt.Errorf("decode response: %w", err)}
	}

	return job, nil
}
