// Package documents implements the document domain: upload into blob storage,
// organization-scoped retrieval, processing status, and reprocessing.
package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// Processing stages recorded in a document's stage history.
const (
	StageTextExtraction  = "text_extraction"
	StageClassification  = "classification"
	StageFieldExtraction = "field_extraction"
	StageValidation      = "validation"
)

// Stage record statuses.
const (
	StageStarted   = "started"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// Document is an uploaded file and its processing state.
type Document struct {
	ID                        uuid.UUID            `json:"id"`
	OrganizationID            uuid.UUID            `json:"organization_id"`
	EntityID                  *uuid.UUID           `json:"entity_id,omitempty"`
	EntityName                *string              `json:"entity_name,omitempty"`
	EntityType                *string              `json:"entity_type,omitempty"`
	UploadedBy                *uuid.UUID           `json:"uploaded_by,omitempty"`
	Filename                  string               `json:"filename"`
	FileType                  string               `json:"file_type"`
	FileSize                  int64                `json:"file_size"`
	StorageKey                string               `json:"-"`
	Status                    string               `json:"status"`
	CurrentStage              *string              `json:"current_stage,omitempty"`
	StageHistory              []upload.StageRecord `json:"stage_history"`
	ErrorMessage              *string              `json:"error_message,omitempty"`
	PageCount                 *int                 `json:"page_count,omitempty"`
	ProcessingStartedAt       *time.Time           `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt     *time.Time           `json:"processing_completed_at,omitempty"`
	ProcessingDurationSeconds *float64             `json:"processing_duration_seconds,omitempty"`
	CreatedAt                 time.Time            `json:"created_at"`
	UpdatedAt                 time.Time            `json:"updated_at"`
}

// CreateCommand carries an uploaded file and its ownership.
type CreateCommand struct {
	OrganizationID uuid.UUID
	UploadedBy     uuid.UUID
	EntityID       *uuid.UUID
	Filename       string
	FileType       string
	Data           []byte
}

// Filters narrows List. Nil fields are ignored.
type Filters struct {
	Status   *string
	EntityID *uuid.UUID
}

// ProcessingMetadata describes how a document was processed.
type ProcessingMetadata struct {
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	FileType    string     `json:"file_type"`
	FileSize    int64      `json:"file_size"`
	PageCount   *int       `json:"page_count,omitempty"`
}

// Data is the extracted content of a document.
type Data struct {
	ExtractedText      *string            `json:"extracted_text"`
	ProcessingMetadata ProcessingMetadata `json:"processing_metadata"`
}

// Message is the body of operations that report only an outcome.
type Message struct {
	Message string `json:"message"`
}
