package model

import "time"

// RunSummary records the outcome of one category's reconciliation run.
type RunSummary struct {
	ID         string      `json:"id"`
	Category   string      `json:"category"`
	Status     FetchStatus `json:"status"`
	Checked    int         `json:"checked"`
	Baseline   int         `json:"baseline"`
	Hits       int         `json:"hits"`
	Alerted    int         `json:"alerted"`
	Missing    int         `json:"missing"`
	DurationMS int64       `json:"duration_ms"`
	StartedAt  time.Time   `json:"started_at"`
}
