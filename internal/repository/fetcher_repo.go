package repository

import "context"

// Fetcher performs outbound HTTP calls for assets, credentials and upstream APIs.
type Fetcher interface {
	// GetBytes downloads the whole body of url.
	GetBytes(ctx context.Context, url string) ([]byte, error)
	// GetJSON issues a GET and decodes the JSON response into out.
	GetJSON(ctx context.Context, url string, out any) error
	// PostJSON posts body as JSON and decodes the JSON response into out.
	PostJSON(ctx context.Context, url string, body any, out any) error
}

// AssetStorage persists downloaded asset bytes.
type AssetStorage interface {
	// Write stores data under filename and returns the local path.
	Write(ctx context.Context, filename string, data []byte) (string, error)
}
