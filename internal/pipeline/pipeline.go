// Package pipeline sequences the observation processing stages:
// recognition, structuring, narrative generation and document
// rendering. Each run owns its own intermediate state; adapters are
// stateless and safe to call from concurrent runs.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Projectworkpls/Observer/internal/domain"
)

// ImageRecognizer extracts text from a worksheet photo.
type ImageRecognizer interface {
	ExtractText(ctx context.Context, capture domain.RawCapture) (string, error)
}

// AudioTranscriber turns a session recording into transcript text.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, capture domain.RawCapture) (string, error)
}

// Structurer parses extracted text into the fixed observation record.
type Structurer interface {
	Structure(ctx context.Context, text string) (domain.StructuredObservation, error)
}

// Narrator synthesizes the observer report. It soft-fails: a degraded
// narrative is still a narrative.
type Narrator interface {
	Generate(ctx context.Context, text string, meta domain.SessionMetadata) domain.Narrative
}

// Renderer serializes a report into a downloadable document.
type Renderer func(report string) ([]byte, error)

// Recorder receives the flat observation record for persistence.
type Recorder interface {
	Record(ctx context.Context, rec domain.ObservationRecord) error
}

// Result is everything a finished run produced.
type Result struct {
	ExtractedText string
	Structured    *domain.StructuredObservation
	Narrative     domain.Narrative
	Document      []byte
}

type Pipeline struct {
	images   ImageRecognizer
	audio    AudioTranscriber
	structur Structurer
	narrator Narrator
	render   Renderer
	recorder Recorder
}

func New(images ImageRecognizer, audio AudioTranscriber, structurer Structurer, narrator Narrator, renderer Renderer, recorder Recorder) *Pipeline {
	return &Pipeline{
		images:   images,
		audio:    audio,
		structur: structurer,
		narrator: narrator,
		render:   renderer,
		recorder: recorder,
	}
}

// ProcessImage runs the image track: OCR, structuring, narrative on
// the structured record's observations text, rendering, persistence.
// An empty observations field after structuring ends the run with
// domain.ErrNoObservations.
func (p *Pipeline) ProcessImage(ctx context.Context, capture domain.RawCapture, meta domain.SessionMetadata, username string) (*Result, error) {
	text, err := p.images.ExtractText(ctx, capture)
	if err != nil {
		return nil, err
	}

	structured, err := p.structur.Structure(ctx, text)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(structured.Observations) == "" {
		return nil, domain.ErrNoObservations
	}

	narrative := p.narrator.Generate(ctx, structured.Observations, meta)
	if narrative.Degraded {
		log.Warn().Str("cause", narrative.Cause).Msg("image run continuing with degraded narrative")
	}

	document, err := p.render(narrative.Text)
	if err != nil {
		return nil, err
	}

	p.record(ctx, imageRecord(structured, capture, username))

	return &Result{
		ExtractedText: text,
		Structured:    &structured,
		Narrative:     narrative,
		Document:      document,
	}, nil
}

// ProcessAudio runs the audio track: transcription feeds the narrator
// directly, with no structuring step in between.
func (p *Pipeline) ProcessAudio(ctx context.Context, capture domain.RawCapture, meta domain.SessionMetadata, username string) (*Result, error) {
	transcript, err := p.audio.Transcribe(ctx, capture)
	if err != nil {
		return nil, err
	}

	narrative := p.narrator.Generate(ctx, transcript, meta)
	if narrative.Degraded {
		log.Warn().Str("cause", narrative.Cause).Msg("audio run continuing with degraded narrative")
	}

	document, err := p.render(narrative.Text)
	if err != nil {
		return nil, err
	}

	p.record(ctx, audioRecord(transcript, narrative.Text, meta, capture.Filename, username))

	return &Result{
		ExtractedText: transcript,
		Narrative:     narrative,
		Document:      document,
	}, nil
}

// Regenerate re-runs narrative generation and rendering over an edited
// transcript. Recognition is not repeated and nothing new is recorded;
// this is the audio track's designed re-entry edge.
func (p *Pipeline) Regenerate(ctx context.Context, transcript string, meta domain.SessionMetadata) (*Result, error) {
	narrative := p.narrator.Generate(ctx, transcript, meta)

	document, err := p.render(narrative.Text)
	if err != nil {
		return nil, err
	}

	return &Result{
		ExtractedText: transcript,
		Narrative:     narrative,
		Document:      document,
	}, nil
}

// record hands the flat record to persistence. Storage trouble is
// logged, not fatal: the user already has their report.
func (p *Pipeline) record(ctx context.Context, rec domain.ObservationRecord) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, rec); err != nil {
		log.Error().Err(err).Msg("failed to record observation")
	}
}

func imageRecord(structured domain.StructuredObservation, capture domain.RawCapture, username string) domain.ObservationRecord {
	fullData, _ := json.Marshal(structured)
	return domain.ObservationRecord{
		Username:           username,
		StudentName:        structured.StudentName,
		StudentID:          structured.StudentID,
		ClassName:          structured.ClassName,
		Date:               structured.Date,
		Observations:       structured.Observations,
		Strengths:          structured.Strengths,
		AreasOfDevelopment: structured.AreasOfDevelopment,
		Recommendations:    structured.Recommendations,
		Timestamp:          time.Now().Format(time.RFC3339),
		Filename:           capture.Filename,
		FullData:           string(fullData),
	}
}

func audioRecord(transcript, report string, meta domain.SessionMetadata, filename, username string) domain.ObservationRecord {
	fullData, _ := json.Marshal(map[string]string{
		"transcript": transcript,
		"report":     report,
	})
	return domain.ObservationRecord{
		Username:           username,
		StudentName:        meta.StudentName,
		Date:               meta.SessionDate,
		Observations:       transcript,
		Strengths:          []string{},
		AreasOfDevelopment: []string{},
		Recommendations:    []string{},
		Timestamp:          time.Now().Format(time.RFC3339),
		Filename:           filename,
		FullData:           string(fullData),
	}
}
