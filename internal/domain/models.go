package domain

import "strings"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
)

// RawCapture is an uploaded worksheet photo or session recording,
// untouched since upload. It is consumed once by recognition.
type RawCapture struct {
	Data     []byte
	Kind     MediaKind
	Filename string
}

// SessionMetadata is supplied by the caller before a run starts. It
// drives the report header; nothing in it is derived from the capture.
type SessionMetadata struct {
	StudentName  string `json:"studentName"`
	ObserverName string `json:"observerName"`
	SessionDate  string `json:"sessionDate"`
	SessionStart string `json:"sessionStart"`
	SessionEnd   string `json:"sessionEnd"`
}

// StructuredObservation is the fixed-shape record the structuring
// service extracts from worksheet text. Every field is best-effort;
// absent fields stay empty, never null.
type StructuredObservation struct {
	StudentName        string   `json:"studentName"`
	StudentID          string   `json:"studentId"`
	ClassName          string   `json:"className"`
	Date               string   `json:"date"`
	Observations       string   `json:"observations"`
	Strengths          []string `json:"strengths"`
	AreasOfDevelopment []string `json:"areasOfDevelopment"`
	Recommendations    []string `json:"recommendations"`
}

// Normalize replaces nil slices with empty ones so persistence and
// JSON responses never carry null lists.
func (o *StructuredObservation) Normalize() {
	if o.Strengths == nil {
		o.Strengths = []string{}
	}
	if o.AreasOfDevelopment == nil {
		o.AreasOfDevelopment = []string{}
	}
	if o.Recommendations == nil {
		o.Recommendations = []string{}
	}
}

// Narrative is the generated report, tagged rather than thrown-on-error:
// when generation fails the run keeps going with the error text so the
// caller still gets a document.
type Narrative struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded"`
	Cause    string `json:"cause,omitempty"`
}

// Transcription job statuses as reported by the speech service.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusError      = "error"
)

// TranscriptionJob mirrors the speech service's async job state while
// it is being polled.
type TranscriptionJob struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	PercentDone float64 `json:"percent_done"`
	Text        string  `json:"text"`
	Error       string  `json:"error"`
}

// Terminal reports whether polling should stop.
func (j TranscriptionJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusError
}

// Session is one observation run: its metadata, the intermediate
// pipeline products and the paths of the rendered artifacts.
type Session struct {
	ID               string                 `json:"id"`
	Username         string                 `json:"username"`
	Source           MediaKind              `json:"source,omitempty"`
	Metadata         SessionMetadata        `json:"metadata"`
	Filename         string                 `json:"filename,omitempty"`
	ExtractedText    string                 `json:"extractedText,omitempty"`
	Structured       *StructuredObservation `json:"structured,omitempty"`
	ReportText       string                 `json:"reportText,omitempty"`
	ReportDegraded   bool                   `json:"reportDegraded,omitempty"`
	DocumentPath     string                 `json:"documentPath,omitempty"`
	PDFPath          string                 `json:"pdfPath,omitempty"`
	ProcessingStatus string                 `json:"processingStatus"`
	ProcessingError  string                 `json:"processingError,omitempty"`
	CreatedAt        int64                  `json:"createdAt"`
	UpdatedAt        int64                  `json:"updatedAt"`
}

const (
	ProcessingStatusPending    = "pending"
	ProcessingStatusProcessing = "processing"
	ProcessingStatusCompleted  = "completed"
	ProcessingStatusFailed     = "failed"
)

// ObservationRecord is the flat record handed to persistence. Field
// order is irrelevant to the collaborator; lists are JSON-encoded at
// the storage boundary.
type ObservationRecord struct {
	Username           string   `json:"username"`
	StudentName        string   `json:"student_name"`
	StudentID          string   `json:"student_id"`
	ClassName          string   `json:"class_name"`
	Date               string   `json:"date"`
	Observations       string   `json:"observations"`
	Strengths          []string `json:"strengths"`
	AreasOfDevelopment []string `json:"areas_of_development"`
	Recommendations    []string `json:"recommendations"`
	Timestamp          string   `json:"timestamp"`
	Filename           string   `json:"filename"`
	FullData           string   `json:"full_data"`
}

// ArtifactName builds the download filename for a report document,
// e.g. Observer_Report_Ravi_Kumar_04-05-2025.docx.
func ArtifactName(meta SessionMetadata, ext string) string {
	student := strings.ReplaceAll(strings.TrimSpace(meta.StudentName), " ", "_")
	if student == "" {
		student = "student"
	}
	date := strings.ReplaceAll(meta.SessionDate, "/", "-")
	if date == "" {
		date = "undated"
	}
	return "Observer_Report_" + student + "_" + date + ext
}
