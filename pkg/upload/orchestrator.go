package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Synthetic progress checkpoints.
const (
	progressValidated = 25
	progressSending   = 50
	progressSent      = 75
	progressPolling   = 90
)

const processingFailedMessage = "processing failed"

// Config configures an Orchestrator. Zero-valued Rules and Poll fall back to
// DefaultRules and DefaultPollConfig. A Poll with only Interval unset keeps its
// StartDelay and MaxDuration and takes the default interval.
type Config struct {
	Rules  Rules
	Poll   PollConfig
	Logger *slog.Logger
}

// snapshot is an immutable view of the record collection. changed is closed
// when the snapshot is replaced.
type snapshot struct {
	records []Record
	changed chan struct{}
}

// Orchestrator owns the collection of upload records for a session. Uploads are
// issued one at a time in submission order; each accepted upload is then polled
// independently until it reaches a terminal status.
//
// The record collection is copy-on-write: every mutation builds a new slice and
// swaps it in atomically, so readers never observe a partially applied change.
type Orchestrator struct {
	transport Transport
	rules     Rules
	poll      PollConfig
	logger    *slog.Logger

	state   atomic.Pointer[snapshot]
	uploads *semaphore.Weighted
	tasks   sync.Map

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an Orchestrator that uploads through t.
func New(t Transport, cfg Config) *Orchestrator {
	if cfg.Rules.MaxSize == 0 && len(cfg.Rules.AllowedTypes) == 0 {
		cfg.Rules = DefaultRules()
	}
	if cfg.Poll == (PollConfig{}) {
		cfg.Poll = DefaultPollConfig()
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = DefaultPollConfig().Interval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		transport: t,
		rules:     cfg.Rules,
		poll:      cfg.Poll,
		logger:    cfg.Logger.With("system", "upload"),
		uploads:   semaphore.NewWeighted(1),
		ctx:       ctx,
		cancel:    cancel,
	}
	o.state.Store(&snapshot{changed: make(chan struct{})})
	return o
}

// UploadFiles submits a batch of files. Records are visible immediately; outcomes
// are reported through the records rather than a return value.
func (o *Orchestrator) UploadFiles(files []File) {
	o.UploadFilesForEntity("", files)
}

// UploadFilesForEntity submits a batch of files associated with entityID.
// Batches submitted after Close are ignored.
func (o *Orchestrator) UploadFilesForEntity(entityID string, files []File) {
	if len(files) == 0 || o.ctx.Err() != nil {
		return
	}

	batch := make([]Record, len(files))
	ctxs := make([]context.Context, len(files))

	for i, f := range files {
		id := uuid.NewString()
		ctx, cancel := context.WithCancel(o.ctx)
		o.tasks.Store(id, cancel)

		batch[i] = Record{
			ID:       id,
			FileName: f.Name,
			Status:   StatusUploading,
		}
		ctxs[i] = ctx
	}

	o.swap(func(records []Record) ([]Record, bool) {
		return append(slices.Clone(records), batch...), true
	})

	go func() {
		for i, f := range files {
			o.process(ctxs[i], batch[i].ID, entityID, f)
		}
	}()
}

// CancelUpload removes the record with the given id and stops any work still
// attached to it. Cancelling an unknown id is a no-op.
func (o *Orchestrator) CancelUpload(id string) {
	removed := o.swap(func(records []Record) ([]Record, bool) {
		i := slices.IndexFunc(records, func(r Record) bool { return r.ID == id })
		if i < 0 {
			return nil, false
		}
		return slices.Delete(slices.Clone(records), i, i+1), true
	})

	o.release(id)

	if removed {
		o.logger.Info("upload cancelled", "id", id)
	}
}

// ClearCompleted removes every completed or failed record. In-flight records are untouched.
func (o *Orchestrator) ClearCompleted() {
	o.swap(func(records []Record) ([]Record, bool) {
		next := slices.DeleteFunc(slices.Clone(records), func(r Record) bool {
			return r.Status.Terminal()
		})
		return next, len(next) != len(records)
	})
}

// Records returns a copy of the current record collection in submission order.
func (o *Orchestrator) Records() []Record {
	return slices.Clone(o.state.Load().records)
}

// Summary counts the current records by status.
func (o *Orchestrator) Summary() Summary {
	return Summarize(o.state.Load().records)
}

// Changed returns a channel that is closed on the next change to the record collection.
func (o *Orchestrator) Changed() <-chan struct{} {
	return o.state.Load().changed
}

// Wait blocks until no record is uploading or processing, or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	for {
		s := o.state.Load()
		if Summarize(s.records).InFlight() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.changed:
		}
	}
}

// Close stops all pending uploads and pollers. Records are left as they are
// and later submissions are ignored.
func (o *Orchestrator) Close() {
	o.cancel()
}

func (o *Orchestrator) process(ctx context.Context, id, entityID string, f File) {
	if ctx.Err() != nil || !o.exists(id) {
		return
	}

	if res := Validate(f, o.rules); !res.IsValid {
		o.logger.Warn("upload rejected", "id", id, "file", f.Name, "error", res.Error)
		o.fail(id, res.Error)
		return
	}
	o.update(id, func(r *Record) { r.advance(progressValidated) })

	if err := o.uploads.Acquire(ctx, 1); err != nil {
		return
	}
	o.update(id, func(r *Record) { r.advance(progressSending) })

	o.logger.Info("upload started", "id", id, "file", f.Name, "size", f.Size)
	result, err := o.transport.Upload(ctx, f, entityID)
	o.uploads.Release(1)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.logger.Warn("upload failed", "id", id, "file", f.Name, "error", err)
		o.fail(id, transportMessage(err))
		return
	}

	o.update(id, func(r *Record) {
		r.advance(progressSent)
		r.DocumentID = result.DocumentID
		r.EntityID = result.EntityID
	})

	switch result.Status {
	case DocumentCompleted:
		o.complete(id)
	case DocumentFailed:
		o.fail(id, processingFailedMessage)
	default:
		o.update(id, func(r *Record) {
			r.Status = StatusProcessing
			r.advance(progressPolling)
		})
		o.logger.Info("upload accepted", "id", id, "document_id", result.DocumentID, "status", result.Status)
		go o.watch(ctx, id, result.DocumentID)
	}
}

func (o *Orchestrator) watch(ctx context.Context, id, documentID string) {
	err := Poll(ctx, o.transport, documentID, o.poll, func(s StatusSnapshot) {
		switch s.Status {
		case DocumentCompleted:
			o.complete(id)
		case DocumentFailed:
			msg := s.ErrorMessage
			if msg == "" {
				msg = processingFailedMessage
			}
			o.fail(id, msg)
		default:
			o.update(id, func(r *Record) {
				r.Status = StatusProcessing
				r.advance(progressPolling)
			})
		}
	})

	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, ErrPollTimeout):
		o.logger.Warn("processing timed out", "id", id, "document_id", documentID)
		o.fail(id, ErrPollTimeout.Error())
	default:
		o.logger.Warn("status check failed", "id", id, "document_id", documentID, "error", err)
		o.fail(id, ErrPollFailed.Error())
	}

	o.release(id)
}

func (o *Orchestrator) complete(id string) {
	if o.update(id, func(r *Record) { r.complete() }) {
		o.logger.Info("upload completed", "id", id)
	}
	o.release(id)
}

func (o *Orchestrator) fail(id, message string) {
	o.update(id, func(r *Record) { r.fail(message) })
	o.release(id)
}

func (o *Orchestrator) release(id string) {
	if cancel, ok := o.tasks.LoadAndDelete(id); ok {
		cancel.(context.CancelFunc)()
	}
}

func (o *Orchestrator) exists(id string) bool {
	return slices.ContainsFunc(o.state.Load().records, func(r Record) bool {
		return r.ID == id
	})
}

// update applies fn to the record with the given id. Missing and terminal
// records are left untouched and update reports false.
func (o *Orchestrator) update(id string, fn func(*Record)) bool {
	return o.swap(func(records []Record) ([]Record, bool) {
		i := slices.IndexFunc(records, func(r Record) bool { return r.ID == id })
		if i < 0 || records[i].Status.Terminal() {
			return nil, false
		}
		next := slices.Clone(records)
		fn(&next[i])
		return next, true
	})
}

func (o *Orchestrator) swap(fn func([]Record) ([]Record, bool)) bool {
	for {
		cur := o.state.Load()
		next, ok := fn(cur.records)
		if !ok {
			return false
		}

		s := &snapshot{records: next, changed: make(chan struct{})}
		if o.state.CompareAndSwap(cur, s) {
			close(cur.changed)
			return true
		}
	}
}

func transportMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Upload failed"
}
