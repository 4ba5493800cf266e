package entity

import "time"

// ConversionRecord mirrors the `conversions` PostgreSQL table schema.
type ConversionRecord struct {
	ID              int64
	URL             string
	Title           string
	AssetsTotal     int
	AssetsLocalized int
	AssetsFailed    int
	DurationMS      int
	ConvertedAt     time.Time
}

// RewriteReport summarises the asset outcomes of one document rewrite.
type RewriteReport struct {
	Total     int
	Localized int
	Failed    int
}
