package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a send is attempted while another cycle is in flight
	ErrBusy = errors.New("a message is already being sent")
	// ErrTooManyImages is returned when a send carries more images than allowed
	ErrTooManyImages = errors.New("too many images")
	// ErrAttachmentTooLarge is returned when a file exceeds the attachment size limit
	ErrAttachmentTooLarge = errors.New("attachment too large")
	// ErrNotRetryable is returned when retrying a message that cannot be resubmitted
	ErrNotRetryable = errors.New("message is not retryable")
	// ErrMessageNotFound is returned when a message id is unknown
	ErrMessageNotFound = errors.New("message not found")
	// ErrUnknownVariant is returned for an unsupported backend variant name
	ErrUnknownVariant = errors.New("unknown variant")
)

// StorageError represents errors accessing the durable store
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "remove"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// QuotaExceededError is returned when a write would push the store past its capacity
type QuotaExceededError struct {
	Key   string
	Size  int64
	Quota int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded writing %s: %d bytes > %d bytes", e.Key, e.Size, e.Quota)
}

// ParseError represents errors parsing persisted data
type ParseError struct {
	Source string // "chat-history"
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeError represents a malformed text-encoded attachment
type DecodeError struct {
	MimeType string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error [%s]: %v", e.MimeType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HTTPStatusError captures non-2xx backend responses. Message holds the
// backend's {"error": "..."} text when the body carried one.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("backend: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// userFacingError extracts the text to show for a failed exchange. The
// backend's own error string wins over the generic notice.
func userFacingError(err error, fallback string) string {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return fallback
}
