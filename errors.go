package clipshelf

import (
	"clipshelf/auth"
	"clipshelf/retry"
	"clipshelf/storage"
	"clipshelf/youtube"
)

// Error handling types exported for library users.
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, clipshelf.ErrQuotaExceeded) {
//		fmt.Println("daily quota exhausted")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var fetchErr *clipshelf.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("stage %s failed: %v\n", fetchErr.Stage, fetchErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// FetchError wraps errors during playlist and video fetching.
	FetchError = youtube.FetchError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrChannelNotFound indicates no resolution strategy found the channel.
	ErrChannelNotFound = youtube.ErrChannelNotFound
	// ErrPlaylistNotFound indicates the playlist does not exist.
	ErrPlaylistNotFound = youtube.ErrPlaylistNotFound
	// ErrNoResults indicates a lookup matched nothing.
	ErrNoResults = youtube.ErrNoResults
	// ErrQuotaExceeded indicates the API quota is exhausted.
	ErrQuotaExceeded = youtube.ErrQuotaExceeded
	// ErrForbidden indicates the API refused the request outright.
	ErrForbidden = youtube.ErrForbidden
	// ErrAPIKeyMissing indicates no API key was configured.
	ErrAPIKeyMissing = youtube.ErrAPIKeyMissing

	// Auth errors
	// ErrNotAuthenticated indicates no account authorization is held.
	ErrNotAuthenticated = auth.ErrNotAuthenticated
	// ErrTokenExpired indicates the platform rejected the held token.
	ErrTokenExpired = auth.ErrTokenExpired
	// ErrConsentPending indicates a consent round is already in flight.
	ErrConsentPending = auth.ErrConsentPending

	// Storage errors
	// ErrNotFound indicates an entity was not found in storage.
	ErrNotFound = storage.ErrNotFound
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsRetryable determines if an error should be retried.
// It returns false for permanent errors like context cancellation.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
