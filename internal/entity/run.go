package entity

import "time"

// RunStats summarizes one extractor run into one table.
type RunStats struct {
	RunID      string    `json:"run_id"`
	Dataset    string    `json:"dataset"`
	Table      string    `json:"table"`
	Written    int       `json:"written"`
	Skipped    int       `json:"skipped"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Aborted    bool      `json:"aborted"`
	Error      string    `json:"error,omitempty"`
}

// Seen returns the number of records the extractor produced.
func (s *RunStats) Seen() int {
	return s.Written + s.Skipped + s.Duplicates + s.Failed
}

// FetchRequest is a single HTTP request issued by an extractor.
type FetchRequest struct {
	Method  string
	URL     string
	Query   map[string]string
	Form    map[string]string
	Headers map[string]string
}

// RenderOptions tune a headless-browser page render.
type RenderOptions struct {
	WaitSelector   string
	ExpandSelector string
	Settle         time.Duration
}
