package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/guardl/internal/downloader"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadFromFile(t *testing.T) {
	p := writeConfig(t, `
timeout: 45s
max_size: 500MB
retries: 0
backoff: 1.5s
limit_rate: 512K
user_agent: guardl-ci/1.0
headers:
  Authorization: Bearer abc
workers: 8
`)
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Timeout:   45 * time.Second,
		MaxSize:   500 * 1024 * 1024,
		Retries:   0,
		Backoff:   1500 * time.Millisecond,
		LimitRate: 512 * 1024,
		UserAgent: "guardl-ci/1.0",
		Headers:   map[string]string{"Authorization": "Bearer abc"},
		Workers:   8,
	}, cfg)
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "max_size: 1KiB\n"))
	require.NoError(t, err)

	want := Default()
	want.MaxSize = 1024
	assert.Equal(t, want, cfg)
}

func TestLoadFromFile_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "timeout: [", wantErr: "parse config file"},
		{name: "bad timeout", content: "timeout: soon\n", wantErr: "parse timeout"},
		{name: "bad size", content: "max_size: huge\n", wantErr: "parse max_size"},
		{name: "bad backoff", content: "backoff: 3\n", wantErr: "parse backoff"},
		{name: "bad rate", content: "limit_rate: fast\n", wantErr: "parse limit_rate"},
		{name: "negative retries", content: "retries: -2\n", wantErr: "retries must not be negative"},
		{name: "zero size", content: "max_size: 0\n", wantErr: "max_size must be positive"},
		{name: "negative workers", content: "workers: -1\n", wantErr: "workers must be positive"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tc.content))
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(missing, true)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err = Load("", true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Timeout = -time.Second
	cfg.Backoff = -time.Second
	cfg.LimitRate = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "timeout must not be negative")
	assert.ErrorContains(t, err, "backoff must not be negative")
	assert.ErrorContains(t, err, "limit_rate must not be negative")
}

func TestRequestOptions(t *testing.T) {
	cfg := Default()
	cfg.Timeout = 5 * time.Second
	cfg.MaxSize = 1024
	cfg.Retries = 1
	cfg.Backoff = 2 * time.Second
	cfg.LimitRate = 4096

	req := downloader.NewRequest("https://example.com/f", "f", cfg.RequestOptions()...)
	assert.Equal(t, downloader.Request{
		URL:             "https://example.com/f",
		DestinationPath: "f",
		Timeout:         5 * time.Second,
		MaxSizeBytes:    1024,
		MaxRetries:      1,
		Backoff:         2 * time.Second,
		RateLimit:       4096,
	}, req)
}

func TestHTTPClientConfig(t *testing.T) {
	cfg := Default()
	cfg.UserAgent = "ua"
	cfg.Headers["X-A"] = "1"

	hc := cfg.HTTPClientConfig()
	assert.Equal(t, "ua", hc.UserAgent)
	assert.Equal(t, map[string]string{"X-A": "1"}, hc.Headers)
}
