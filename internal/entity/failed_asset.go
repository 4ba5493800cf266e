package entity

import "time"

// FailedAsset mirrors the `failed_assets` PostgreSQL table schema.
type FailedAsset struct {
	ID                   int64
	URL                  string
	Kind                 string
	FailureReason        string
	LastAttemptTimestamp time.Time
	AttemptCount         int
}
