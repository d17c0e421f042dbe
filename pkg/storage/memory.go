package storage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/JaimeStill/rhythmrisk/pkg/lifecycle"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

type memory struct {
	mu     sync.RWMutex
	blobs  map[string]memoryBlob
	logger *slog.Logger
}

// NewMemory returns a System that keeps blobs in process memory. Contents are
// lost on restart.
func NewMemory() System {
	return newMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newMemory(logger *slog.Logger) *memory {
	return &memory{
		blobs:  make(map[string]memoryBlob),
		logger: logger,
	}
}

func (m *memory) Start(lc *lifecycle.Coordinator) error {
	m.logger.Warn("using in-memory blob storage")
	return nil
}

func (m *memory) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = memoryBlob{data: data, contentType: contentType}
	return nil
}

func (m *memory) Download(ctx context.Context, key string) (*Blob, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	b, ok := m.blobs[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return &Blob{
		Body:          io.NopCloser(bytes.NewReader(b.data)),
		ContentType:   b.contentType,
		ContentLength: int64(len(b.data)),
	}, nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}
