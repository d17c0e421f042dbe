package documents

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/internal/auth"
	"github.com/JaimeStill/rhythmrisk/pkg/handlers"
	"github.com/JaimeStill/rhythmrisk/pkg/pagination"
	"github.com/JaimeStill/rhythmrisk/pkg/routes"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// multipartOverhead is allowed on top of the file size limit for form framing.
const multipartOverhead = 1 << 20

// Handler provides HTTP endpoints for document operations. Every route
// expects the authenticated user in the request context.
type Handler struct {
	sys    System
	logger *slog.Logger
	cfg    Config
}

// NewHandler creates a Handler with the given system, logger, and upload policy.
func NewHandler(sys System, logger *slog.Logger, cfg Config) *Handler {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = cfg.Rules.MaxSize
	}
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "documents"),
		cfg:    cfg,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "GET", Pattern: "/{id}/download", Handler: h.Download},
			{Method: "GET", Pattern: "/{id}/status", Handler: h.Status},
			{Method: "GET", Pattern: "/{id}/data", Handler: h.Data},
			{Method: "POST", Pattern: "/{id}/reprocess", Handler: h.Reprocess},
			{Method: "PATCH", Pattern: "/{id}/entity", Handler: h.AssignEntity},
		},
	}
}

// Upload stores the multipart "file" field as a new pending document,
// optionally assigned to the "entity_id" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)
	result := upload.Validate(upload.File{
		Name: header.Filename,
		Size: int64(len(data)),
		Type: contentType,
	}, h.cfg.Rules)
	if !result.IsValid {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New(result.Error))
		return
	}

	cmd := CreateCommand{
		OrganizationID: user.OrganizationID,
		UploadedBy:     user.ID,
		Filename:       header.Filename,
		FileType:       contentType,
		Data:           data,
	}

	if v := r.FormValue("entity_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEntity)
			return
		}
		cmd.EntityID = &id
	}

	doc, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// List returns one page of the organization's documents, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	page, err := pagination.FromQuery(r.URL.Query(), h.cfg.Pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	filters, err := FiltersFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	docs, err := h.sys.List(r.Context(), user.OrganizationID, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, docs)
}

// Find returns a single document.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), user.OrganizationID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Delete removes a document and its stored file.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), user.OrganizationID, id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Message{Message: "Document deleted successfully"})
}

// Download streams the stored file as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}

	doc, blob, err := h.sys.Download(r.Context(), user.OrganizationID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = doc.FileType
	}
	w.Header().Set("Content-Type", contentType)
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": doc.Filename,
	}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("download interrupted", "id", id, "error", err)
	}
}

// Status returns the processing status of a document.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}

	s, err := h.sys.Status(r.Context(), user.OrganizationID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Data returns the extracted content of a document.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}

	d, err := h.sys.Data(r.Context(), user.OrganizationID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Reprocess returns a failed or stuck document to pending.
func (h *Handler) Reprocess(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}

	s, err := h.sys.Reprocess(r.Context(), user.OrganizationID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

type assignEntityRequest struct {
	EntityID *string `json:"entity_id"`
}

// AssignEntity sets or clears the entity of a document. The entity id is read
// from a JSON body, or from the entity_id query parameter when no body is sent.
func (h *Handler) AssignEntity(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var req assignEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEntity)
		return
	}
	if req.EntityID == nil {
		if v := r.URL.Query().Get("entity_id"); v != "" {
			req.EntityID = &v
		}
	}

	var entityID *uuid.UUID
	if req.EntityID != nil && *req.EntityID != "" {
		parsed, err := uuid.Parse(*req.EntityID)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEntity)
			return
		}
		entityID = &parsed
	}

	if err := h.sys.AssignEntity(r.Context(), user.OrganizationID, id, entityID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Message{Message: "Document entity assignment updated successfully"})
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthenticated)
	}
	return u, ok
}

// target resolves the caller and the {id} path value. Malformed ids are
// reported as not found.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*auth.User, uuid.UUID, bool) {
	u, ok := h.user(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return nil, uuid.Nil, false
	}
	return u, id, true
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil {
			return mediaType
		}
		return header
	}
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mediaType
}
