// Package processing runs uploaded documents through the extraction pipeline.
// Workers claim pending documents from the database, record each stage in the
// document's stage history, and finish the document as completed or failed.
package processing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// ErrSuperseded reports that a claimed document was reset or removed while a
// worker held it. The worker abandons the run without writing further state.
var ErrSuperseded = errors.New("document claim superseded")

// Job is a document claimed for processing. Token is the processing start time
// written by the claim and guards every later write for this run.
type Job struct {
	ID         uuid.UUID
	StorageKey string
	Filename   string
	FileType   string
	FileSize   int64
	Token      time.Time
}

// Result accumulates stage output written when the document completes.
type Result struct {
	ExtractedText *string
	PageCount     *int
}

// Queue is the persistence the worker needs. Every write after Claim must
// return ErrSuperseded when the job's token no longer matches.
type Queue interface {
	Claim(ctx context.Context) (*Job, error)
	Begin(ctx context.Context, job *Job, stage string) error
	Record(ctx context.Context, job *Job, rec upload.StageRecord) error
	Complete(ctx context.Context, job *Job, res Result) error
	Fail(ctx context.Context, job *Job, message string) error
}
