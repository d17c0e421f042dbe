package processing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JaimeStill/rhythmrisk/pkg/repository"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

const claimQuery = `
	WITH next AS (
		SELECT id FROM documents
		WHERE status = $1
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE documents d
	SET status = $2,
		processing_started_at = NOW(),
		processing_completed_at = NULL,
		error_message = NULL,
		current_stage = NULL,
		updated_at = NOW()
	FROM next
	WHERE d.id = next.id
	RETURNING d.id, d.storage_key, d.filename, d.file_type, d.file_size, d.processing_started_at`

// guard matches only the run that claimed the document.
const guard = "id = $1 AND status = 'processing' AND processing_started_at = $2"

type pgQueue struct {
	db *sql.DB
}

// NewQueue returns a Queue backed by the documents table.
func NewQueue(db *sql.DB) Queue {
	return &pgQueue{db: db}
}

// Claim moves the oldest pending document to processing. It returns nil when
// nothing is pending.
func (q *pgQueue) Claim(ctx context.Context) (*Job, error) {
	job, err := repository.WithTx(ctx, q.db, func(tx *sql.Tx) (*Job, error) {
		return repository.QueryOne(ctx, tx, claimQuery,
			[]any{upload.DocumentPending, upload.DocumentProcessing},
			scanJob,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim document: %w", err)
	}
	return job, nil
}

func (q *pgQueue) Begin(ctx context.Context, job *Job, stage string) error {
	return q.exec(ctx, "begin stage",
		"UPDATE documents SET current_stage = $3, updated_at = NOW() WHERE "+guard,
		job.ID, job.Token, stage,
	)
}

func (q *pgQueue) Record(ctx context.Context, job *Job, rec upload.StageRecord) error {
	entry, err := json.Marshal([]upload.StageRecord{rec})
	if err != nil {
		return fmt.Errorf("marshal stage record: %w", err)
	}
	return q.exec(ctx, "record stage",
		"UPDATE documents SET stage_history = stage_history || $3::jsonb, updated_at = NOW() WHERE "+guard,
		job.ID, job.Token, string(entry),
	)
}

func (q *pgQueue) Complete(ctx context.Context, job *Job, res Result) error {
	return q.exec(ctx, "complete document", `
		UPDATE documents
		SET status = $3,
			extracted_text = $4,
			page_count = $5,
			current_stage = NULL,
			processing_completed_at = NOW(),
			updated_at = NOW()
		WHERE `+guard,
		job.ID, job.Token, upload.DocumentCompleted, res.ExtractedText, res.PageCount,
	)
}

func (q *pgQueue) Fail(ctx context.Context, job *Job, message string) error {
	return q.exec(ctx, "fail document", `
		UPDATE documents
		SET status = $3,
			error_message = $4,
			processing_completed_at = NOW(),
			updated_at = NOW()
		WHERE `+guard,
		job.ID, job.Token, upload.DocumentFailed, message,
	)
}

func (q *pgQueue) exec(ctx context.Context, op, query string, args ...any) error {
	err := repository.ExecExpectOne(ctx, q.db, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSuperseded
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanJob(s repository.Scanner) (*Job, error) {
	var j Job
	if err := s.Scan(&j.ID, &j.StorageKey, &j.Filename, &j.FileType, &j.FileSize, &j.Token); err != nil {
		return nil, err
	}
	return &j, nil
}
