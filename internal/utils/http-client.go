package utils

import (
	"net"
	"net/http"
	"time"
)

type HTTPClientConfig struct {
	ConnectTimeout time.Duration
	KATimeout      time.Duration
	UserAgent      string
	Headers        map[string]string
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GuardlHTTPClient applies the configured User-Agent and headers to every
// request. It sets no overall client timeout: a whole-request deadline
// would cut off large bodies, so callers bound idle time instead.
type GuardlHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewHTTPClient(cfg HTTPClientConfig) *GuardlHTTPClient {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 90 * time.Second
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		DisableCompression:  true,
	}
	return &GuardlHTTPClient{
		client: &http.Client{Transport: transport},
		config: cfg,
	}
}

func (g *GuardlHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if g.config.UserAgent != "" {
		req.Header.Set("User-Agent", g.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	for k, v := range g.config.Headers {
		req.Header.Set(k, v)
	}
	return g.client.Do(req)
}
