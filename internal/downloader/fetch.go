package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tanq16/guardl/internal/utils"
)

// maxErrBodySize caps how much of a non-2xx body is read for the error.
const maxErrBodySize = 4 << 10

// Response is an open body stream plus the size the source announced.
// DeclaredLength is -1 when the source did not announce one.
type Response struct {
	Body           io.ReadCloser
	DeclaredLength int64
}

// Fetcher opens a streaming body for req.URL. Failures should be
// returned as *TransportError.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// HTTPFetcher issues plain GET requests through a utils.HTTPDoer.
type HTTPFetcher struct {
	client utils.HTTPDoer
}

func NewHTTPFetcher(client utils.HTTPDoer) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: fmt.Errorf("creating GET request: %w", err)}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, rerr := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		resp.Body.Close()
		detail := strings.TrimSpace(string(b))
		if rerr != nil {
			detail = "unable to read body"
		}
		return nil, &TransportError{
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, detail),
		}
	}

	declared := resp.ContentLength
	if declared < 0 {
		declared = -1
	}
	return &Response{Body: resp.Body, DeclaredLength: declared}, nil
}
