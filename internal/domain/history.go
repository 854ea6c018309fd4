package domain

import "time"

// Outcome is the processing result recorded for an acquisition date.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// HistoryRecord is one ledger entry in the observation history. At most one
// record exists per acquisition date; success is terminal.
type HistoryRecord struct {
	Date        string    `json:"date"`
	CloudCover  float64   `json:"cloud_cover"`
	Outcome     Outcome   `json:"outcome"`
	ProcessedAt time.Time `json:"processed_at"`
}
