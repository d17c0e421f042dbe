package documents

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/pkg/pagination"
	"github.com/JaimeStill/rhythmrisk/pkg/query"
	"github.com/JaimeStill/rhythmrisk/pkg/repository"
	"github.com/JaimeStill/rhythmrisk/pkg/storage"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// Config holds document upload and status policy.
type Config struct {
	Rules         upload.Rules
	MaxUploadSize int64
	Pagination    pagination.Config
	StuckAfter    time.Duration
}

type repo struct {
	db      *sql.DB
	storage storage.System
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time
}

// New creates a document repository implementing the System interface.
func New(db *sql.DB, store storage.System, cfg Config, logger *slog.Logger) System {
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = DefaultStuckAfter
	}
	return &repo{
		db:      db,
		storage: store,
		logger:  logger.With("system", "documents"),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.cfg)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if cmd.EntityID != nil {
		if err := r.checkEntity(ctx, cmd.OrganizationID, *cmd.EntityID); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	key := buildStorageKey(cmd.OrganizationID, id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.FileType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents(id, organization_id, entity_id, uploaded_by, filename, file_type, file_size, storage_key, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id,
			cmd.OrganizationID,
			cmd.EntityID,
			cmd.UploadedBy,
			cmd.Filename,
			cmd.FileType,
			int64(len(cmd.Data)),
			key,
			upload.DocumentPending,
		)
		return struct{}{}, err
	})
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("document created", "id", id, "filename", cmd.Filename, "size", len(cmd.Data))
	return r.Find(ctx, cmd.OrganizationID, id)
}

func (r *repo) List(
	ctx context.Context,
	orgID uuid.UUID,
	page pagination.Request,
	filters Filters,
) ([]Document, error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OrganizationID", orgID)

	filters.Apply(qb)

	q, args := qb.BuildPage(page.Limit, page.Offset())
	docs, err := repository.QueryMany(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	now := r.now()
	for i := range docs {
		docs[i].ProcessingDurationSeconds = docs[i].duration(now)
	}
	return docs, nil
}

func (r *repo) Find(ctx context.Context, orgID, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	if d.OrganizationID != orgID {
		return nil, ErrForbidden
	}

	d.ProcessingDurationSeconds = d.duration(r.now())
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	doc, err := r.Find(ctx, orgID, id)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return dbErrors.Map(err)
	}

	if delErr := r.storage.Delete(ctx, doc.StorageKey); delErr != nil {
		r.logger.Warn("blob delete failed after DB delete", "key", doc.StorageKey, "error", delErr)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

func (r *repo) Download(ctx context.Context, orgID, id uuid.UUID) (*Document, *storage.Blob, error) {
	doc, err := r.Find(ctx, orgID, id)
	if err != nil {
		return nil, nil, err
	}

	blob, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download document blob: %w", err)
	}
	return doc, blob, nil
}

func (r *repo) Status(ctx context.Context, orgID, id uuid.UUID) (*upload.StatusSnapshot, error) {
	doc, err := r.Find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	s := doc.Snapshot(r.now(), r.cfg.StuckAfter)
	return &s, nil
}

func (r *repo) Data(ctx context.Context, orgID, id uuid.UUID) (*Data, error) {
	doc, err := r.Find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	var text *string
	if err := r.db.QueryRowContext(ctx,
		"SELECT extracted_text FROM documents WHERE id = $1", id,
	).Scan(&text); err != nil {
		return nil, dbErrors.Map(err)
	}

	return &Data{
		ExtractedText: text,
		ProcessingMetadata: ProcessingMetadata{
			ProcessedAt: doc.ProcessingCompletedAt,
			FileType:    doc.FileType,
			FileSize:    doc.FileSize,
			PageCount:   doc.PageCount,
		},
	}, nil
}

func (r *repo) Reprocess(ctx context.Context, orgID, id uuid.UUID) (*upload.StatusSnapshot, error) {
	doc, err := r.Find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := doc.checkReprocess(r.now(), r.cfg.StuckAfter); err != nil {
		return nil, err
	}

	err = repository.ExecExpectOne(ctx, r.db, `
		UPDATE documents
		SET status = $2,
			error_message = NULL,
			processing_started_at = NULL,
			processing_completed_at = NULL,
			current_stage = NULL,
			stage_history = '[]',
			updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, upload.DocumentPending, doc.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStillProcessing
	}
	if err != nil {
		return nil, fmt.Errorf("reset document: %w", err)
	}

	r.logger.Info("document queued for reprocessing", "id", id, "previous_status", doc.Status)
	return r.Status(ctx, orgID, id)
}

func (r *repo) AssignEntity(ctx context.Context, orgID, id uuid.UUID, entityID *uuid.UUID) error {
	if _, err := r.Find(ctx, orgID, id); err != nil {
		return err
	}
	if entityID != nil {
		if err := r.checkEntity(ctx, orgID, *entityID); err != nil {
			return err
		}
	}

	err := repository.ExecExpectOne(ctx, r.db,
		"UPDATE documents SET entity_id = $2, updated_at = NOW() WHERE id = $1",
		id, entityID,
	)
	if err != nil {
		return dbErrors.Map(err)
	}

	r.logger.Info("document entity updated", "id", id, "entity_id", entityID)
	return nil
}

func (r *repo) checkEntity(ctx context.Context, orgID, entityID uuid.UUID) error {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM entities WHERE id = $1 AND organization_id = $2)",
		entityID, orgID,
	).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check entity: %w", err)
	}
	if !ok {
		return ErrInvalidEntity
	}
	return nil
}

func buildStorageKey(orgID, id uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", orgID, id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" || name == "/" || name == ".." {
		name = "document"
	}
	return url.PathEscape(name)
}
