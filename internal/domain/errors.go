package domain

import (
	"errors"
	"fmt"
)

// ErrNoObservations marks an image run whose structured record came
// back with an empty observations field. It is distinct from adapter
// failures: recognition and structuring both succeeded, there was just
// nothing to report on.
var ErrNoObservations = errors.New("no observations found in the extracted data")

// RecognitionError is a failed image OCR or audio transcription
// attempt. Op identifies the phase that failed (ocr, upload,
// transcript, poll, timeout) and Detail carries the service-reported
// reason verbatim.
type RecognitionError struct {
	Op     string
	Detail string
	Err    error
}

func (e *RecognitionError) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("recognition %s: %s: %v", e.Op, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("recognition %s: %s", e.Op, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("recognition %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("recognition %s failed", e.Op)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// StructuringError is a failed text-to-record step: transport failure,
// unparseable JSON, or an unusable response shape.
type StructuringError struct {
	Detail string
	Err    error
}

func (e *StructuringError) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("structuring: %s: %v", e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("structuring: %s", e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("structuring: %v", e.Err)
	}
	return "structuring failed"
}

func (e *StructuringError) Unwrap() error { return e.Err }

// IsRecognition reports whether err is (or wraps) a RecognitionError.
func IsRecognition(err error) bool {
	var re *RecognitionError
	return errors.As(err, &re)
}

// IsStructuring reports whether err is (or wraps) a StructuringError.
func IsStructuring(err error) bool {
	var se *StructuringError
	return errors.As(err, &se)
}
