package downloader

import (
	"errors"
	"fmt"
)

var (
	ErrSizeExceeded      = errors.New("download size exceeded")
	ErrTransport         = errors.New("transport failure")
	ErrFilesystem        = errors.New("filesystem failure")
	ErrTimeout           = errors.New("no data received within timeout")
	ErrUnexpectedStatus  = errors.New("unexpected status code")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrInvalidRequest    = errors.New("invalid download request")
)

// SizeExceededError reports a body larger than the configured limit.
// Declared is true when the server announced the size up front and the
// body was never read.
type SizeExceededError struct {
	URL      string
	Limit    int64
	Observed int64
	Declared bool
}

func (e *SizeExceededError) Error() string {
	if e.Declared {
		return fmt.Sprintf("%v: declared %d bytes, limit %d bytes for %s", ErrSizeExceeded, e.Observed, e.Limit, e.URL)
	}
	return fmt.Sprintf("%v: received more than %d bytes for %s", ErrSizeExceeded, e.Limit, e.URL)
}

func (e *SizeExceededError) Unwrap() error {
	return ErrSizeExceeded
}

// TransportError covers connection failures, timeouts and non-2xx
// responses. StatusCode is zero when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: %s: status %d: %v", ErrTransport, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrTransport, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// FilesystemError covers directory creation, staging writes and the
// final rename.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrFilesystem, e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() []error {
	return []error{ErrFilesystem, e.Err}
}
