package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/rhythmrisk/internal/documents"
	"github.com/JaimeStill/rhythmrisk/pkg/lifecycle"
	"github.com/JaimeStill/rhythmrisk/pkg/storage"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// Config sizes the worker pool.
type Config struct {
	Workers      int
	PollInterval time.Duration
}

// Worker processes pending documents with a fixed pool of goroutines.
type Worker struct {
	queue   Queue
	storage storage.System
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewWorker creates a Worker. It does nothing until Start or Run.
func NewWorker(queue Queue, store storage.System, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Worker{
		queue:   queue,
		storage: store,
		cfg:     cfg,
		logger:  logger.With("system", "processing"),
		now:     time.Now,
	}
}

// Start runs the pool on the coordinator's context once startup completes and
// waits for it to drain on shutdown. A pool of zero workers is not started.
func (w *Worker) Start(lc *lifecycle.Coordinator) {
	if w.cfg.Workers <= 0 {
		w.logger.Info("document processing disabled")
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		lc.WaitForStartup()
		if err := w.Run(lc.Context()); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("processing stopped", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-done
		w.logger.Info("processing workers stopped")
	})
}

// Run blocks until ctx is cancelled, claiming and processing documents.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("processing workers started", "workers", w.cfg.Workers, "poll_interval", w.cfg.PollInterval)

	g, gctx := errgroup.WithContext(ctx)
	for i := range w.cfg.Workers {
		g.Go(func() error {
			return w.loop(gctx, i)
		})
	}
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, n int) error {
	logger := w.logger.With("worker", n)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		worked, err := w.Next(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Warn("claim failed", "error", err)
		}
		if worked {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Next claims and processes one document. It reports whether a document was
// claimed.
func (w *Worker) Next(ctx context.Context) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}

	job, err := w.queue.Claim(ctx)
	if err != nil || job == nil {
		return false, err
	}

	w.process(ctx, job)
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *Job) {
	logger := w.logger.With("document_id", job.ID, "filename", job.Filename)
	logger.Info("processing started")

	err := w.runStages(ctx, job)
	switch {
	case errors.Is(err, ErrSuperseded):
		logger.Info("processing abandoned, document was reset")
	case ctx.Err() != nil:
		logger.Warn("processing interrupted, document left for reprocessing")
	case err != nil:
		logger.Warn("processing failed", "error", err)
	default:
		logger.Info("processing completed", "duration", w.now().Sub(job.Token))
	}
}

func (w *Worker) runStages(ctx context.Context, job *Job) error {
	data, loadErr := load(ctx, w.storage, job.StorageKey)

	var res Result
	for _, s := range pipeline {
		if err := w.queue.Begin(ctx, job, s.name); err != nil {
			return err
		}

		started := w.now()
		var err error
		if loadErr != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadable, loadErr)
		} else {
			err = s.run(ctx, job, data, &res)
		}
		rec := stageRecord(s.name, started, w.now(), err)

		if recErr := w.queue.Record(ctx, job, rec); recErr != nil {
			return recErr
		}
		if err != nil {
			if failErr := w.queue.Fail(ctx, job, err.Error()); failErr != nil {
				return failErr
			}
			return err
		}
	}

	return w.queue.Complete(ctx, job, res)
}

func stageRecord(name string, started, finished time.Time, err error) upload.StageRecord {
	secs := finished.Sub(started).Seconds()
	rec := upload.StageRecord{
		Stage:           name,
		StartedAt:       started,
		CompletedAt:     &finished,
		Status:          documents.StageCompleted,
		DurationSeconds: &secs,
	}
	if err != nil {
		rec.Status = documents.StageFailed
		rec.ErrorMessage = err.Error()
	}
	return rec
}
