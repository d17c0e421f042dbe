package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

const documentsPath = "/api/documents"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload sends f to the service and reports the created document in the form
// the upload orchestrator consumes.
func (c *Client) Upload(ctx context.Context, f upload.File, entityID string) (*upload.UploadResult, error) {
	doc, err := c.UploadDocument(ctx, f, entityID)
	if err != nil {
		return nil, err
	}
	return &upload.UploadResult{
		DocumentID: doc.ID,
		EntityID:   doc.EntityID,
		Status:     doc.Status,
	}, nil
}

// UploadDocument streams f as multipart form field "file", with entityID as
// field "entity_id" when set.
func (c *Client) UploadDocument(ctx context.Context, f upload.File, entityID string) (*Document, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(mw, f, entityID))
	}()

	var doc Document
	err := c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        documentsPath + "/upload",
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &doc)
	pr.Close()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func writeUpload(mw *multipart.Writer, f upload.File, entityID string) error {
	if entityID != "" {
		if err := mw.WriteField("entity_id", entityID); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Name),
	))
	h.Set("Content-Type", f.Type)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	return mw.Close()
}

// List returns one page of the organization's documents, newest first.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Document, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.EntityID != "" {
		q.Set("entity_id", opts.EntityID)
	}

	var docs []Document
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: documentsPath, query: q}, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Find returns a single document.
func (c *Client) Find(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: documentPath(id)}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes a document and its stored file.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: documentPath(id)}, nil)
}

// Download is an open document download. The caller must close Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Download opens the stored file of a document.
func (c *Client) Download(ctx context.Context, id string) (*Download, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: documentPath(id) + "/download"})
	if err != nil {
		return nil, err
	}

	d := &Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	return d, nil
}

// Status returns the processing status of a document.
func (c *Client) Status(ctx context.Context, id string) (*upload.StatusSnapshot, error) {
	var s upload.StatusSnapshot
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: documentPath(id) + "/status"}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Data returns the extracted content of a processed document.
func (c *Client) Data(ctx context.Context, id string) (*DocumentData, error) {
	var d DocumentData
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: documentPath(id) + "/data"}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Reprocess queues a failed or stuck document for another processing run and
// returns its reset status.
func (c *Client) Reprocess(ctx context.Context, id string) (*upload.StatusSnapshot, error) {
	var s upload.StatusSnapshot
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: documentPath(id) + "/reprocess"}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AssignEntity moves a document to entityID, or unassigns it when entityID is empty.
func (c *Client) AssignEntity(ctx context.Context, id, entityID string) error {
	body, err := jsonBody(map[string]*string{"entity_id": optional(entityID)})
	if err != nil {
		return err
	}

	var msg message
	return c.doJSON(ctx, request{
		method:      http.MethodPatch,
		path:        documentPath(id) + "/entity",
		body:        body,
		contentType: "application/json",
	}, &msg)
}

func documentPath(id string) string {
	return documentsPath + "/" + url.PathEscape(id)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
