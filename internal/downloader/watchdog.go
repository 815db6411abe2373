package downloader

import (
	"context"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// watchdog cancels an attempt once timeout passes without a Kick.
// A nil watchdog is valid and does nothing.
type watchdog struct {
	timer   *time.Timer
	timeout time.Duration
}

func newWatchdog(timeout time.Duration, cancel context.CancelCauseFunc) *watchdog {
	if timeout <= 0 {
		return nil
	}
	return &watchdog{
		timer:   time.AfterFunc(timeout, func() { cancel(ErrTimeout) }),
		timeout: timeout,
	}
}

func (w *watchdog) Kick() {
	if w == nil {
		return
	}
	w.timer.Reset(w.timeout)
}

func (w *watchdog) Stop() {
	if w == nil {
		return
	}
	w.timer.Stop()
}

// idleReader arms the watchdog only while a read is waiting on the
// source, so time spent writing or reporting progress is not counted as
// idle. It reports the context cause instead of the transport's generic
// cancellation error.
type idleReader struct {
	ctx context.Context
	r   io.Reader
	wd  *watchdog
}

func (ir *idleReader) Read(p []byte) (int, error) {
	ir.wd.Kick()
	n, err := ir.r.Read(p)
	ir.wd.Stop()
	if err != nil && err != io.EOF && ir.ctx.Err() != nil {
		return n, context.Cause(ir.ctx)
	}
	return n, err
}

// throttledReader paces reads with a token bucket sized to one chunk.
// Wrapped around an idleReader, token waits happen with the watchdog
// stopped.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func newThrottledReader(ctx context.Context, r io.Reader, bytesPerSecond int64) io.Reader {
	if bytesPerSecond <= 0 {
		return r
	}
	return &throttledReader{
		ctx:     ctx,
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), chunkSize),
	}
}

func (tr *throttledReader) Read(p []byte) (int, error) {
	if len(p) > chunkSize {
		p = p[:chunkSize]
	}
	n, err := tr.r.Read(p)
	if n > 0 {
		if werr := tr.limiter.WaitN(tr.ctx, n); werr != nil {
			if cause := context.Cause(tr.ctx); cause != nil {
				return n, cause
			}
			return n, werr
		}
	}
	return n, err
}
