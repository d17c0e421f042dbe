package upload

// Status is the client-side lifecycle state of a single upload.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Record tracks one submitted file from selection to terminal outcome.
// A record in StatusError always has Progress 0; a completed record has Progress 100.
type Record struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	Progress   int    `json:"progress"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
}

// Summary counts records by outcome.
type Summary struct {
	Uploading  int `json:"uploading"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// InFlight returns the number of records that have not reached a terminal status.
func (s Summary) InFlight() int {
	return s.Uploading + s.Processing
}

// Summarize counts records by status.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch r.Status {
		case StatusUploading:
			s.Uploading++
		case StatusProcessing:
			s.Processing++
		case StatusCompleted:
			s.Completed++
		case StatusError:
			s.Failed++
		}
	}
	return s
}

func (r *Record) advance(progress int) {
	r.Progress = max(r.Progress, progress)
}

func (r *Record) fail(message string) {
	r.Status = StatusError
	r.Progress = 0
	r.Error = message
}

func (r *Record) complete() {
	r.Status = StatusCompleted
	r.Progress = 100
	r.Error = ""
}
