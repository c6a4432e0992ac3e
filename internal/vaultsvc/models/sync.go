package models

import "time"

// SyncReport summarizes one catalog synchronization run.
type SyncReport struct {
	InstanceID string         `json:"instance_id,omitempty"`
	Fetched    int            `json:"fetched"`
	Upserted   int            `json:"upserted"`
	Inserted   int            `json:"inserted"`
	Updated    int            `json:"updated"`
	Failed     int            `json:"failed"`
	Failures   []*RecordError `json:"failures,omitempty"` // capped sample
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DurationMs int64          `json:"duration_ms"`
}
