package response

import "time"

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// ConversionStatusResponse is a DTO for the conversion ledger, mirroring entity.ConversionRecord
type ConversionStatusResponse struct {
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	AssetsTotal     int       `json:"assets_total"`
	AssetsLocalized int       `json:"assets_localized"`
	AssetsFailed    int       `json:"assets_failed"`
	DurationMS      int       `json:"duration_ms"`
	ConvertedAt     time.Time `json:"converted_at"`
}

type FailedAssetResponse struct {
	URL                  string    `json:"url"`
	Kind                 string    `json:"kind"`
	FailureReason        string    `json:"failure_reason"`
	LastAttemptTimestamp time.Time `json:"last_attempt_timestamp"`
	AttemptCount         int       `json:"attempt_count"`
}

type FailedAssetsResponse struct {
	Items []FailedAssetResponse `json:"items"`
	Count int                   `json:"count"`
}
