package model

import "time"

// RunStats accounts for every record outcome in a collection run.
type RunStats struct {
	TotalProcessed    int `json:"total_processed"`
	APISuccess        int `json:"api_success"`
	HSCTVNSuccess     int `json:"hsctvn_success"`
	DualSourceSuccess int `json:"dual_source_success"`
	NewRecords        int `json:"new_records"`
	UpdatedRecords    int `json:"updated_records"`
	Errors            int `json:"errors"`

	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// NewRunStats starts the clock on a run.
func NewRunStats() *RunStats {
	return &RunStats{StartTime: time.Now().UTC()}
}

// Finalize stamps the end time and duration.
func (s *RunStats) Finalize() {
	s.EndTime = time.Now().UTC()
	s.DurationSeconds = s.EndTime.Sub(s.StartTime).Seconds()
}
