package downloader

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of *s3.Client used by S3Fetcher.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher streams s3://bucket/key objects.
type S3Fetcher struct {
	client S3API
}

func NewS3Fetcher(client S3API) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// NewS3FetcherFromProfile loads the shared AWS config for profile.
// SDK-level retries are disabled; the downloader owns the retry policy.
func NewS3FetcherFromProfile(ctx context.Context, profile string) (*S3Fetcher, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
		config.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewS3Fetcher(s3.NewFromConfig(cfg)), nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	bucket, key, err := ParseS3URL(req.URL)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	declared := int64(-1)
	if out.ContentLength != nil {
		declared = aws.ToInt64(out.ContentLength)
	}
	return &Response{Body: out.Body, DeclaredLength: declared}, nil
}

// ParseS3URL splits s3://bucket/key. The key may contain slashes.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing s3 url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("s3 url must name a single object: %s", raw)
	}
	return bucket, key, nil
}
