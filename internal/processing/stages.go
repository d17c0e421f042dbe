package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/rhythmrisk/internal/documents"
	"github.com/JaimeStill/rhythmrisk/pkg/storage"
)

// Stage failures. Messages are stored as the document's error message.
var (
	ErrEmptyFile    = errors.New("document file is empty")
	ErrSizeMismatch = errors.New("stored file size does not match upload")
	ErrNoText       = errors.New("document contains no readable text")
	ErrNoPages      = errors.New("PDF document has no pages")
	ErrUnreadable   = errors.New("document file could not be read")
)

type stageFunc func(ctx context.Context, job *Job, data []byte, res *Result) error

type stage struct {
	name string
	run  stageFunc
}

var pipeline = []stage{
	{name: documents.StageTextExtraction, run: extract},
	{name: documents.StageValidation, run: validate},
}

// extract pulls text from plain-text documents and counts PDF pages. Images
// pass through without extracted content.
func extract(_ context.Context, job *Job, data []byte, res *Result) error {
	switch job.FileType {
	case "text/plain":
		text := normalizeText(data)
		res.ExtractedText = &text
	case "application/pdf":
		n, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		res.PageCount = &n
	}
	return nil
}

func validate(_ context.Context, job *Job, data []byte, res *Result) error {
	switch {
	case len(data) == 0:
		return ErrEmptyFile
	case int64(len(data)) != job.FileSize:
		return ErrSizeMismatch
	case job.FileType == "text/plain" && (res.ExtractedText == nil || strings.TrimSpace(*res.ExtractedText) == ""):
		return ErrNoText
	case job.FileType == "application/pdf" && (res.PageCount == nil || *res.PageCount == 0):
		return ErrNoPages
	}
	return nil
}

// normalizeText makes text storable in a Postgres text column.
func normalizeText(data []byte) string {
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.ReplaceAll(s, "\x00", "")
}

func load(ctx context.Context, store storage.System, key string) ([]byte, error) {
	blob, err := store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer blob.Body.Close()
	return io.ReadAll(blob.Body)
}
