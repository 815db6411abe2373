package downloader

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxSizeBytes = int64(2 * 1024 * 1024 * 1024) // 2 GiB
	DefaultMaxRetries   = 3
	DefaultBackoff      = time.Second

	// chunkSize is the read buffer used while streaming a body.
	chunkSize = 1024 * 1024
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request describes one download. It is not modified by Download.
type Request struct {
	URL             string        `validate:"required,url"`
	DestinationPath string        `validate:"required"`
	Timeout         time.Duration `validate:"gte=0"`
	MaxSizeBytes    int64         `validate:"gt=0"`
	MaxRetries      int           `validate:"gte=0"`
	Backoff         time.Duration `validate:"gte=0"`
	// RateLimit caps the body read rate in bytes per second; 0 is unlimited.
	RateLimit int64 `validate:"gte=0"`
}

// RequestOption overrides one of the Request defaults.
type RequestOption func(*Request)

// NewRequest returns a Request for url and destPath with defaults applied.
func NewRequest(url, destPath string, optFns ...RequestOption) Request {
	req := Request{
		URL:             url,
		DestinationPath: destPath,
		Timeout:         DefaultTimeout,
		MaxSizeBytes:    DefaultMaxSizeBytes,
		MaxRetries:      DefaultMaxRetries,
		Backoff:         DefaultBackoff,
	}
	for _, opt := range optFns {
		opt(&req)
	}
	return req
}

// WithTimeout bounds connection setup and every wait for body data.
// Zero disables the timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) { r.Timeout = d }
}

func WithMaxSize(n int64) RequestOption {
	return func(r *Request) { r.MaxSizeBytes = n }
}

// WithMaxRetries sets how many attempts follow the first failed one.
func WithMaxRetries(n int) RequestOption {
	return func(r *Request) { r.MaxRetries = n }
}

// WithBackoff sets the unit of the linear retry delay.
func WithBackoff(d time.Duration) RequestOption {
	return func(r *Request) { r.Backoff = d }
}

func WithRateLimit(bytesPerSecond int64) RequestOption {
	return func(r *Request) { r.RateLimit = bytesPerSecond }
}

// Validate reports field-level problems joined under ErrInvalidRequest.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	errs := make([]error, 0, len(fieldErrs)+1)
	errs = append(errs, ErrInvalidRequest)
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}
