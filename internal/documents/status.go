package documents

import (
	"time"

	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

// DefaultStuckAfter is how long a document may stay in processing before it
// is reported as stuck and becomes eligible for reprocessing.
const DefaultStuckAfter = 5 * time.Minute

// duration is completed minus started, or now minus started while processing.
// It is nil until processing has started.
func (d *Document) duration(now time.Time) *float64 {
	if d.ProcessingStartedAt == nil {
		return nil
	}
	end := now
	if d.ProcessingCompletedAt != nil {
		end = *d.ProcessingCompletedAt
	}
	secs := end.Sub(*d.ProcessingStartedAt).Seconds()
	return &secs
}

// Stuck reports whether d has been processing for longer than after.
func (d *Document) Stuck(now time.Time, after time.Duration) bool {
	if d.Status != upload.DocumentProcessing {
		return false
	}
	secs := d.duration(now)
	return secs != nil && *secs > after.Seconds()
}

// Snapshot returns the processing status view of d.
func (d *Document) Snapshot(now time.Time, stuckAfter time.Duration) upload.StatusSnapshot {
	s := upload.StatusSnapshot{
		DocumentID:                d.ID.String(),
		Filename:                  d.Filename,
		Status:                    d.Status,
		CurrentStage:              deref(d.CurrentStage),
		StageHistory:              d.StageHistory,
		ProcessingDurationSeconds: d.duration(now),
		ErrorMessage:              deref(d.ErrorMessage),
		ProcessingStartedAt:       d.ProcessingStartedAt,
		ProcessingCompletedAt:     d.ProcessingCompletedAt,
	}
	if s.StageHistory == nil {
		s.StageHistory = []upload.StageRecord{}
	}
	if d.Stuck(now, stuckAfter) {
		s.IsStuck = true
		s.StuckStage = s.CurrentStage
	}
	return s
}

// checkReprocess allows failed and pending documents, and processing
// documents that are stuck or never recorded a start.
func (d *Document) checkReprocess(now time.Time, stuckAfter time.Duration) error {
	switch d.Status {
	case upload.DocumentCompleted:
		return ErrAlreadyProcessed
	case upload.DocumentProcessing:
		if d.ProcessingStartedAt != nil && !d.Stuck(now, stuckAfter) {
			return ErrStillProcessing
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
