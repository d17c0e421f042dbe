package documents

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

func ptr[T any](v T) *T { return &v }

func TestSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		doc          Document
		wantDuration *float64
		wantStuck    bool
		wantStage    string
	}{
		{
			name: "pending has no duration",
			doc:  Document{Status: upload.DocumentPending},
		},
		{
			name: "processing measures to now",
			doc: Document{
				Status:              upload.DocumentProcessing,
				CurrentStage:        ptr(StageTextExtraction),
				ProcessingStartedAt: ptr(now.Add(-90 * time.Second)),
			},
			wantDuration: ptr(90.0),
		},
		{
			name: "processing past threshold is stuck",
			doc: Document{
				Status:              upload.DocumentProcessing,
				CurrentStage:        ptr(StageValidation),
				ProcessingStartedAt: ptr(now.Add(-6 * time.Minute)),
			},
			wantDuration: ptr(360.0),
			wantStuck:    true,
			wantStage:    StageValidation,
		},
		{
			name: "exactly at threshold is not stuck",
			doc: Document{
				Status:              upload.DocumentProcessing,
				ProcessingStartedAt: ptr(now.Add(-5 * time.Minute)),
			},
			wantDuration: ptr(300.0),
		},
		{
			name: "completed measures start to finish",
			doc: Document{
				Status:                upload.DocumentCompleted,
				ProcessingStartedAt:   ptr(now.Add(-time.Hour)),
				ProcessingCompletedAt: ptr(now.Add(-time.Hour + 12*time.Second)),
			},
			wantDuration: ptr(12.0),
		},
		{
			name: "failed long ago is never stuck",
			doc: Document{
				Status:              upload.DocumentFailed,
				ErrorMessage:        ptr("unreadable"),
				ProcessingStartedAt: ptr(now.Add(-time.Hour)),
			},
			wantDuration: ptr(3600.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.doc.ID = uuid.New()
			s := tt.doc.Snapshot(now, DefaultStuckAfter)

			if s.DocumentID != tt.doc.ID.String() {
				t.Errorf("DocumentID = %s", s.DocumentID)
			}
			switch {
			case tt.wantDuration == nil && s.ProcessingDurationSeconds != nil:
				t.Errorf("duration = %v, want nil", *s.ProcessingDurationSeconds)
			case tt.wantDuration != nil && (s.ProcessingDurationSeconds == nil || *s.ProcessingDurationSeconds != *tt.wantDuration):
				t.Errorf("duration = %v, want %v", s.ProcessingDurationSeconds, *tt.wantDuration)
			}
			if s.IsStuck != tt.wantStuck || s.StuckStage != tt.wantStage {
				t.Errorf("stuck = %v/%q, want %v/%q", s.IsStuck, s.StuckStage, tt.wantStuck, tt.wantStage)
			}
			if s.StageHistory == nil {
				t.Error("StageHistory must encode as an empty list")
			}
			if tt.doc.ErrorMessage != nil && s.ErrorMessage != *tt.doc.ErrorMessage {
				t.Errorf("ErrorMessage = %q", s.ErrorMessage)
			}
		})
	}
}

func TestCheckReprocess(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		doc  Document
		want error
	}{
		{"failed", Document{Status: upload.DocumentFailed}, nil},
		{"pending", Document{Status: upload.DocumentPending}, nil},
		{"completed", Document{Status: upload.DocumentCompleted}, ErrAlreadyProcessed},
		{
			"processing recently",
			Document{Status: upload.DocumentProcessing, ProcessingStartedAt: ptr(now.Add(-time.Minute))},
			ErrStillProcessing,
		},
		{
			"processing and stuck",
			Document{Status: upload.DocumentProcessing, ProcessingStartedAt: ptr(now.Add(-10 * time.Minute))},
			nil,
		},
		{"processing without start", Document{Status: upload.DocumentProcessing}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.doc.checkReprocess(now, DefaultStuckAfter); !errors.Is(err, tt.want) {
				t.Errorf("checkReprocess() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	entity := uuid.New()

	tests := []struct {
		name    string
		query   map[string][]string
		wantErr bool
	}{
		{"empty", nil, false},
		{"valid", map[string][]string{"status": {"failed"}, "entity_id": {entity.String()}}, false},
		{"unknown status", map[string][]string{"status": {"uploaded"}}, true},
		{"bad entity", map[string][]string{"entity_id": {"acme"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FiltersFromQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("err = %v, want ErrInvalidFilter", err)
			}
			if tt.name == "valid" && (*f.Status != "failed" || *f.EntityID != entity) {
				t.Errorf("filters = %+v", f)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"policy.pdf":          "policy.pdf",
		"../../etc/passwd":    "passwd",
		"claims/loss run.pdf": "loss%20run.pdf",
		"":                    "document",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
