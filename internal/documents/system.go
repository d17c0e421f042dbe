package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/pkg/pagination"
	"github.com/JaimeStill/rhythmrisk/pkg/storage"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// System defines the public contract for document domain operations. Every
// operation is scoped to orgID: documents of another organization are
// reported as ErrForbidden.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	List(ctx context.Context, orgID uuid.UUID, page pagination.Request, filters Filters) ([]Document, error)
	Find(ctx context.Context, orgID, id uuid.UUID) (*Document, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	// Download opens the stored file of a document. The caller closes the blob body.
	Download(ctx context.Context, orgID, id uuid.UUID) (*Document, *storage.Blob, error)
	Status(ctx context.Context, orgID, id uuid.UUID) (*upload.StatusSnapshot, error)
	Data(ctx context.Context, orgID, id uuid.UUID) (*Data, error)
	// Reprocess returns a failed or stuck document to pending.
	Reprocess(ctx context.Context, orgID, id uuid.UUID) (*upload.StatusSnapshot, error)
	// AssignEntity moves a document to entityID, or unassigns it when nil.
	AssignEntity(ctx context.Context, orgID, id uuid.UUID, entityID *uuid.UUID) error
}
