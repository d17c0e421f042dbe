package upload_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

func TestPoll(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name        string
		statuses    []string
		statusErr   error
		maxDuration time.Duration
		wantErr     error
		wantUpdates int
	}{
		{
			name:        "completes after processing",
			statuses:    []string{upload.DocumentPending, upload.DocumentProcessing, upload.DocumentCompleted},
			wantUpdates: 3,
		},
		{
			name:        "uploaded is not terminal",
			statuses:    []string{upload.DocumentUploaded, upload.DocumentFailed},
			wantUpdates: 2,
		},
		{
			name:      "request failure",
			statusErr: boom,
			wantErr:   upload.ErrPollFailed,
		},
		{
			name:        "timeout",
			statuses:    []string{upload.DocumentProcessing},
			maxDuration: 20 * time.Millisecond,
			wantErr:     upload.ErrPollTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			tr := &fakeTransport{
				statusFn: func(_ context.Context, id string) (*upload.StatusSnapshot, error) {
					if tt.statusErr != nil {
						return nil, tt.statusErr
					}
					s := tt.statuses[min(calls, len(tt.statuses)-1)]
					calls++
					return &upload.StatusSnapshot{DocumentID: id, Status: s}, nil
				},
			}

			cfg := fastPoll()
			cfg.MaxDuration = tt.maxDuration

			updates := 0
			err := upload.Poll(context.Background(), tr, "doc-1", cfg, func(s upload.StatusSnapshot) {
				updates++
				if s.DocumentID != "doc-1" {
					t.Errorf("DocumentID = %q", s.DocumentID)
				}
			})

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Poll() error = %v", err)
				}
				if updates != tt.wantUpdates {
					t.Errorf("updates = %d, want %d", updates, tt.wantUpdates)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Poll() error = %v, want %v", err, tt.wantErr)
			}
			if tt.statusErr != nil && !errors.Is(err, tt.statusErr) {
				t.Errorf("Poll() error = %v does not wrap cause", err)
			}
		})
	}
}

func TestPollCancelled(t *testing.T) {
	tr := &fakeTransport{statusFn: stillProcessing}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- upload.Poll(ctx, tr, "doc-1", fastPoll(), func(upload.StatusSnapshot) {})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Poll() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Poll did not return after cancel")
	}

	after := tr.statusCalls.Load()
	time.Sleep(10 * time.Millisecond)
	if got := tr.statusCalls.Load(); got != after {
		t.Errorf("status calls continued after cancel: %d -> %d", after, got)
	}
}

func TestStatusSnapshotTerminal(t *testing.T) {
	tests := map[string]bool{
		upload.DocumentUploaded:   false,
		upload.DocumentPending:    false,
		upload.DocumentProcessing: false,
		upload.DocumentCompleted:  true,
		upload.DocumentFailed:     true,
	}

	for status, want := range tests {
		s := upload.StatusSnapshot{Status: status}
		if got := s.Terminal(); got != want {
			t.Errorf("Terminal(%q) = %v, want %v", status, got, want)
		}
	}
}
