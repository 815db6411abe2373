package downloader

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/guardl/internal/utils"
)

func newHTTPTestDownloader(t *testing.T, srv *httptest.Server, opts ...Option) *Downloader {
	t.Helper()
	base := []Option{
		WithLogger(zerolog.Nop()),
		WithHTTPClient(srv.Client()),
		WithSleep(func(time.Duration) {}),
	}
	d, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return d
}

func TestHTTPDownload_Success(t *testing.T) {
	payload := bytes.Repeat([]byte("guardl"), 5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	d := newHTTPTestDownloader(t, srv)

	path, err := d.Download(NewRequest(srv.URL+"/file.bin", dest))
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Empty(t, stagingFiles(t, dir))
}

func TestHTTPDownload_DeclaredLengthTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "10000000000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out", "file.bin")
	d := newHTTPTestDownloader(t, srv)

	_, err := d.Download(NewRequest(srv.URL+"/big", dest, WithMaxSize(1024), WithMaxRetries(0)))

	var sizeErr *SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	assert.True(t, sizeErr.Declared)
	assert.Equal(t, int64(10_000_000_000), sizeErr.Observed)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestHTTPDownload_ChunkedBodyOverLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 1024))
		w.(http.Flusher).Flush()
		w.Write(bytes.Repeat([]byte("b"), 1024))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	require.NoError(t, os.WriteFile(dest, []byte("keep me"), 0644))

	var totals []int64
	d := newHTTPTestDownloader(t, srv, WithProgress(func(_, total int64) {
		totals = append(totals, total)
	}))

	_, err := d.Download(NewRequest(srv.URL+"/stream", dest, WithMaxSize(1024), WithMaxRetries(0)))

	var sizeErr *SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	assert.False(t, sizeErr.Declared)
	assert.Greater(t, sizeErr.Observed, int64(1024))
	assert.Empty(t, stagingFiles(t, dir))
	for _, total := range totals {
		assert.Equal(t, int64(-1), total)
	}

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))
}

func TestHTTPDownload_UnexpectedStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := newHTTPTestDownloader(t, srv)

	_, err := d.Download(NewRequest(srv.URL+"/file", filepath.Join(dir, "f"), WithMaxRetries(2)))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "maintenance")
	assert.Equal(t, int32(3), hits.Load())
	assert.Empty(t, stagingFiles(t, dir))
}

func TestHTTPDownload_StalledBodyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("abc"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	d := newHTTPTestDownloader(t, srv)

	start := time.Now()
	_, err := d.Download(NewRequest(srv.URL+"/slow", dest, WithTimeout(200*time.Millisecond), WithMaxRetries(0)))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.NoFileExists(t, dest)
	assert.Empty(t, stagingFiles(t, dir))
}

func TestHTTPDownload_StalledHeadersTimeOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	d := newHTTPTestDownloader(t, srv)

	_, err := d.Download(NewRequest(srv.URL+"/slow", filepath.Join(t.TempDir(), "f"),
		WithTimeout(200*time.Millisecond), WithMaxRetries(0)))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Zero(t, transportErr.StatusCode)
}

func TestHTTPDownload_SlowProgressIsNotIdle(t *testing.T) {
	first := bytes.Repeat([]byte("a"), 1024)
	second := bytes.Repeat([]byte("b"), 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(first)
		w.(http.Flusher).Flush()
		time.Sleep(20 * time.Millisecond)
		w.Write(second)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "file.bin")
	// Each progress call outlasts the idle timeout; only time spent
	// waiting on the server counts towards it.
	d := newHTTPTestDownloader(t, srv, WithProgress(func(int64, int64) {
		time.Sleep(300 * time.Millisecond)
	}))

	_, err := d.Download(NewRequest(srv.URL+"/file", dest,
		WithTimeout(100*time.Millisecond), WithMaxRetries(0)))
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), got)
}

func TestHTTPDownload_RateLimitedStillCompletes(t *testing.T) {
	payload := bytes.Repeat([]byte("r"), 8*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "file.bin")
	d := newHTTPTestDownloader(t, srv)

	_, err := d.Download(NewRequest(srv.URL+"/file", dest, WithRateLimit(1024*1024)))
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestHTTPDownload_SendsConfiguredHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "guardl-test/1.0" || r.Header.Get("X-Token") != "abc" {
			http.Error(w, "missing headers", http.StatusForbidden)
			return
		}
		if r.Header.Get("Accept-Encoding") != "" {
			http.Error(w, "compression requested", http.StatusBadRequest)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d, err := New(
		WithLogger(zerolog.Nop()),
		WithSleep(func(time.Duration) {}),
		WithHTTPConfig(utils.HTTPClientConfig{
			UserAgent: "guardl-test/1.0",
			Headers:   map[string]string{"X-Token": "abc"},
		}),
	)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "f")
	_, err = d.Download(NewRequest(srv.URL+"/f", dest, WithMaxRetries(0)))
	require.NoError(t, err)
}

func TestDownload_PackageLevel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "hello.txt")
	path, err := Download(srv.URL+"/hello.txt", dest, WithMaxRetries(0), WithMaxSize(5))
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}
