package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tanq16/guardl/internal/utils"
)

const tracerName = "github.com/tanq16/guardl/internal/downloader"

// ProgressFunc observes transferred bytes for the current attempt.
// total is -1 when the source did not declare a length.
type ProgressFunc func(transferred, total int64)

// Downloader runs bounded, atomically committed downloads with retries.
// A Downloader is safe for concurrent use on different destinations.
type Downloader struct {
	fetchers map[string]Fetcher
	log      zerolog.Logger
	progress ProgressFunc
	sleep    func(time.Duration)
	tracer   trace.Tracer
}

// Option configures a Downloader.
type Option func(*Downloader) error

// WithLogger replaces the default "downloader" component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Downloader) error {
		d.log = log
		return nil
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(d *Downloader) error {
		d.progress = fn
		return nil
	}
}

// WithHTTPConfig builds the http/https fetcher from cfg.
func WithHTTPConfig(cfg utils.HTTPClientConfig) Option {
	return func(d *Downloader) error {
		f := NewHTTPFetcher(utils.NewHTTPClient(cfg))
		d.fetchers["http"] = f
		d.fetchers["https"] = f
		return nil
	}
}

// WithHTTPClient uses hc as-is for http and https URLs.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Downloader) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		f := NewHTTPFetcher(hc)
		d.fetchers["http"] = f
		d.fetchers["https"] = f
		return nil
	}
}

// WithFetcher registers f for URLs whose scheme is scheme.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(d *Downloader) error {
		if scheme == "" || f == nil {
			return fmt.Errorf("fetcher scheme and implementation must be set")
		}
		d.fetchers[strings.ToLower(scheme)] = f
		return nil
	}
}

// WithSleep replaces the blocking delay used between attempts.
func WithSleep(fn func(time.Duration)) Option {
	return func(d *Downloader) error {
		if fn == nil {
			return fmt.Errorf("sleep func must not be nil")
		}
		d.sleep = fn
		return nil
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Downloader) error {
		if t == nil {
			return fmt.Errorf("tracer must not be nil")
		}
		d.tracer = t
		return nil
	}
}

// New returns a Downloader with an http/https fetcher built from the
// default utils.HTTPClientConfig.
func New(optFns ...Option) (*Downloader, error) {
	httpFetcher := NewHTTPFetcher(utils.NewHTTPClient(utils.HTTPClientConfig{}))
	d := &Downloader{
		fetchers: map[string]Fetcher{
			"http":  httpFetcher,
			"https": httpFetcher,
		},
		log:    utils.GetLogger("downloader"),
		sleep:  time.Sleep,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range optFns {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("applying downloader option: %w", err)
		}
	}
	return d, nil
}

// Download fetches rawURL into destPath with a default Downloader.
func Download(rawURL, destPath string, optFns ...RequestOption) (string, error) {
	d, err := New()
	if err != nil {
		return "", err
	}
	return d.Download(NewRequest(rawURL, destPath, optFns...))
}

// Download runs up to req.MaxRetries+1 attempts, sleeping Backoff*k
// before the k-th retry. Every failure kind consumes an attempt. When
// attempts run out the last error is returned unchanged. Invalid
// requests and unknown schemes fail before the first attempt.
func (d *Downloader) Download(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	fetcher, err := d.fetcherFor(req.URL)
	if err != nil {
		return "", err
	}

	log := d.log.With().Str("url", req.URL).Str("dest", req.DestinationPath).Logger()
	ctx, span := d.tracer.Start(context.Background(), "guardl.download", trace.WithAttributes(
		attribute.String("url", req.URL),
		attribute.String("destination", req.DestinationPath),
		attribute.Int64("max_size_bytes", req.MaxSizeBytes),
		attribute.Int("max_retries", req.MaxRetries),
	))
	defer span.End()

	for attempt := 1; ; attempt++ {
		log.Debug().Int("attempt", attempt).Int("maxAttempts", req.MaxRetries+1).Msg("Starting download attempt")
		written, err := d.attempt(ctx, fetcher, req, attempt, log)
		if err == nil {
			log.Info().Int64("bytes", written).Msgf("Download successful for %s", req.DestinationPath)
			span.SetAttributes(attribute.Int("attempts", attempt))
			return req.DestinationPath, nil
		}

		log.Error().Err(err).Int("attempt", attempt).Msg("Download attempt failed")
		if attempt > req.MaxRetries {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		delay := req.Backoff * time.Duration(attempt)
		log.Warn().Dur("delay", delay).Msgf("Retrying download (attempt %d/%d)", attempt+1, req.MaxRetries+1)
		d.sleep(delay)
	}
}

// attempt is one independent fetch, size check, stream and commit.
func (d *Downloader) attempt(parent context.Context, fetcher Fetcher, req Request, n int, log zerolog.Logger) (int64, error) {
	ctx, span := d.tracer.Start(parent, "guardl.attempt", trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	wd := newWatchdog(req.Timeout, cancel)
	defer wd.Stop()

	written, err := func() (int64, error) {
		resp, err := fetcher.Fetch(ctx, req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		wd.Stop()

		if resp.DeclaredLength > 0 && resp.DeclaredLength > req.MaxSizeBytes {
			return 0, &SizeExceededError{
				URL:      req.URL,
				Limit:    req.MaxSizeBytes,
				Observed: resp.DeclaredLength,
				Declared: true,
			}
		}
		log.Debug().Int64("declared", resp.DeclaredLength).Msg("Response accepted")

		body := newThrottledReader(ctx, &idleReader{ctx: ctx, r: resp.Body, wd: wd}, req.RateLimit)
		return stageAndCommit(body, resp.DeclaredLength, req, d.progress, log)
	}()

	span.SetAttributes(attribute.Int64("bytes", written))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return written, err
}

func (d *Downloader) fetcherFor(raw string) (Fetcher, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	f, ok := d.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f, nil
}
