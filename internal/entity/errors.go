package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth marks failures to obtain a platform credential.
	ErrAuth = errors.New("authorization failed")
	// ErrUpstream marks non-success responses from the content source or platform.
	ErrUpstream = errors.New("upstream request failed")
	// ErrTokenRejected marks platform answers saying the access token is invalid or expired.
	ErrTokenRejected = errors.New("access token rejected")
	// ErrAssetFetch and ErrStorage mark per-asset failures; callers recover from them.
	ErrAssetFetch = errors.New("asset fetch failed")
	ErrStorage    = errors.New("asset storage failed")
)

// AuthError is returned when the credential exchange did not yield a token.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrAuth, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrAuth, e.Message)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError carries the provider's message from a non-success response.
type UpstreamError struct {
	Op      string
	Code    int
	Message string
	// TokenRejected is set when the platform refused the access token itself.
	TokenRejected bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrUpstream, e.Op, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream || (e.TokenRejected && target == ErrTokenRejected)
}

// AssetFetchError wraps a failed download of one asset.
type AssetFetchError struct {
	URL string
	Err error
}

func (e *AssetFetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAssetFetch, e.URL, e.Err)
}

func (e *AssetFetchError) Is(target error) bool { return target == ErrAssetFetch }

func (e *AssetFetchError) Unwrap() error { return e.Err }

// StorageError wraps a failed write of one asset.
type StorageError struct {
	Filename string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Filename, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }
