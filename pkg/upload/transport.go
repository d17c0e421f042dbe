package upload

import (
	"context"
	"time"
)

// Document processing statuses reported by the document service.
const (
	DocumentUploaded   = "uploaded"
	DocumentPending    = "pending"
	DocumentProcessing = "processing"
	DocumentCompleted  = "completed"
	DocumentFailed     = "failed"
)

// UploadResult is the service's answer to a successful upload request.
type UploadResult struct {
	DocumentID string
	EntityID   string
	Status     string
}

// StageRecord is one entry of a document's processing stage history.
type StageRecord struct {
	Stage           string     `json:"stage"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
}

// StatusSnapshot mirrors the service's processing status for one document.
// It is read-only to the orchestrator.
type StatusSnapshot struct {
	DocumentID                string        `json:"document_id"`
	Filename                  string        `json:"filename"`
	Status                    string        `json:"status"`
	CurrentStage              string        `json:"current_stage,omitempty"`
	StageHistory              []StageRecord `json:"stage_history"`
	ProcessingDurationSeconds *float64      `json:"processing_duration_seconds,omitempty"`
	IsStuck                   bool          `json:"is_stuck"`
	StuckStage                string        `json:"stuck_stage,omitempty"`
	ErrorMessage              string        `json:"error_message,omitempty"`
	ProcessingStartedAt       *time.Time    `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt     *time.Time    `json:"processing_completed_at,omitempty"`
}

// Terminal reports whether the document has finished processing, successfully or not.
func (s StatusSnapshot) Terminal() bool {
	return terminal(s.Status)
}

func terminal(status string) bool {
	return status == DocumentCompleted || status == DocumentFailed
}

// Transport issues requests against the document service.
// Upload performs exactly one request and never retries.
type Transport interface {
	Upload(ctx context.Context, file File, entityID string) (*UploadResult, error)
	Status(ctx context.Context, documentID string) (*StatusSnapshot, error)
}
