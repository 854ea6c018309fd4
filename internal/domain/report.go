package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RunReport summarizes one pipeline invocation. It is logged, and when the
// Kafka notifier is enabled, published to the run-report topic so the
// scheduler side can tell a failed run from a no-op success.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`

	ScenesDiscovered int      `json:"scenes_discovered"`
	AlreadyProcessed int      `json:"already_processed"`
	Processed        []string `json:"processed,omitempty"` // dates newly marked success
	Failed           []string `json:"failed,omitempty"`    // dates recorded failed, retried next run

	Published   bool `json:"published"`
	LayersTotal int  `json:"layers_total"`
	PixelsTotal int  `json:"pixels_total"`
}

// NewRunID derives a deterministic run identifier from the discovery window
// and start time. Deterministic IDs keep re-published run reports keyed
// identically, the same replay-safety idea used for event IDs downstream.
func NewRunID(windowStart, windowEnd string, startedAt time.Time) string {
	input := fmt.Sprintf("%s|%s|%s", windowStart, windowEnd, startedAt.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	return "run-" + hex.EncodeToString(hash[:8])
}
