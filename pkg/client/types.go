package client

import (
	"time"

	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// Document is a document record as returned by upload, list, and find.
type Document struct {
	ID                        string               `json:"id"`
	Filename                  string               `json:"filename"`
	FileType                  string               `json:"file_type"`
	Status                    string               `json:"status"`
	CreatedAt                 time.Time            `json:"created_at"`
	FileSize                  int64                `json:"file_size"`
	OrganizationID            string               `json:"organization_id"`
	EntityID                  string               `json:"entity_id,omitempty"`
	EntityName                string               `json:"entity_name,omitempty"`
	EntityType                string               `json:"entity_type,omitempty"`
	ErrorMessage              string               `json:"error_message,omitempty"`
	ProcessingStartedAt       *time.Time           `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt     *time.Time           `json:"processing_completed_at,omitempty"`
	CurrentStage              string               `json:"current_stage,omitempty"`
	StageHistory              []upload.StageRecord `json:"stage_history,omitempty"`
	ProcessingDurationSeconds *float64             `json:"processing_duration_seconds,omitempty"`
}

// ListOptions filters and pages List. Zero values are omitted from the request.
type ListOptions struct {
	Page     int
	Limit    int
	Status   string
	EntityID string
}

// ProcessingMetadata describes how a document was processed.
type ProcessingMetadata struct {
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	FileType    string     `json:"file_type"`
	FileSize    int64      `json:"file_size"`
	PageCount   *int       `json:"page_count,omitempty"`
}

// DocumentData is the extracted content of a processed document.
type DocumentData struct {
	ExtractedText      *string            `json:"extracted_text"`
	ProcessingMetadata ProcessingMetadata `json:"processing_metadata"`
}

// RegisterRequest creates a user together with a new organization.
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"full_name"`
	OrganizationName string `json:"organization_name"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type message struct {
	Message string `json:"message"`
}
