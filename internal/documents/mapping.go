package documents

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/pkg/query"
	"github.com/JaimeStill/rhythmrisk/pkg/repository"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("organization_id", "OrganizationID").
	Project("entity_id", "EntityID").
	Project("uploaded_by", "UploadedBy").
	Project("filename", "Filename").
	Project("file_type", "FileType").
	Project("file_size", "FileSize").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("current_stage", "CurrentStage").
	Project("stage_history", "StageHistory").
	Project("error_message", "ErrorMessage").
	Project("page_count", "PageCount").
	Project("processing_started_at", "ProcessingStartedAt").
	Project("processing_completed_at", "ProcessingCompletedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	LeftJoin("entities", "e", "d.entity_id = e.id").
	ProjectFrom("e", "name", "EntityName").
	ProjectFrom("e", "entity_type", "EntityType")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var dbErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Reference: ErrInvalidEntity,
}

var statuses = []string{
	upload.DocumentPending,
	upload.DocumentProcessing,
	upload.DocumentCompleted,
	upload.DocumentFailed,
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("EntityID", f.EntityID)
}

// FiltersFromQuery reads the status and entity_id query parameters.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if s := values.Get("status"); s != "" {
		if !slices.Contains(statuses, s) {
			return Filters{}, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, s)
		}
		f.Status = &s
	}

	if eid := values.Get("entity_id"); eid != "" {
		id, err := uuid.Parse(eid)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: entity_id must be a UUID", ErrInvalidFilter)
		}
		f.EntityID = &id
	}

	return f, nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d       Document
		history []byte
	)
	err := s.Scan(
		&d.ID,
		&d.OrganizationID,
		&d.EntityID,
		&d.UploadedBy,
		&d.Filename,
		&d.FileType,
		&d.FileSize,
		&d.StorageKey,
		&d.Status,
		&d.CurrentStage,
		&history,
		&d.ErrorMessage,
		&d.PageCount,
		&d.ProcessingStartedAt,
		&d.ProcessingCompletedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.EntityName,
		&d.EntityType,
	)
	if err != nil {
		return d, err
	}

	d.StageHistory = []upload.StageRecord{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &d.StageHistory); err != nil {
			return d, fmt.Errorf("decode stage history: %w", err)
		}
	}
	return d, nil
}
