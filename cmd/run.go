package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tanq16/guardl/internal/downloader"
	"github.com/tanq16/guardl/internal/output"
	"github.com/tanq16/guardl/internal/utils"
)

// newDownloader builds a Downloader from the resolved settings. The s3
// fetcher is only configured when profile is non-empty.
func newDownloader(progress downloader.ProgressFunc, profile string) (*downloader.Downloader, error) {
	opts := []downloader.Option{
		downloader.WithHTTPConfig(settings.HTTPClientConfig()),
		downloader.WithLogger(utils.GetLogger("downloader")),
	}
	if tracerProvider != nil {
		opts = append(opts, downloader.WithTracer(tracerProvider.Tracer("github.com/tanq16/guardl")))
	}
	if progress != nil {
		opts = append(opts, downloader.WithProgress(progress))
	}
	if profile != "" {
		s3Fetcher, err := downloader.NewS3FetcherFromProfile(context.Background(), profile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, downloader.WithFetcher("s3", s3Fetcher))
	}
	return downloader.New(opts...)
}

// downloadOne runs a single download with a progress bar on stderr when
// it is a terminal.
func downloadOne(url, outputPath, profile string) error {
	var bar *output.ProgressBar
	var progress downloader.ProgressFunc
	if !noProgress && output.IsTerminal(os.Stderr) {
		bar = output.NewProgressBar(os.Stderr, filepath.Base(outputPath))
		progress = bar.Update
	}

	dl, err := newDownloader(progress, profile)
	if err != nil {
		return err
	}
	console.Info(fmt.Sprintf("Downloading %s to %s", url, outputPath))
	path, err := dl.Download(downloader.NewRequest(url, outputPath, settings.RequestOptions()...))
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		reportFailure(err)
		return err
	}
	console.Info(fmt.Sprintf("Saved %s", path))
	return nil
}

func reportFailure(err error) {
	var sizeErr *downloader.SizeExceededError
	switch {
	case errors.As(err, &sizeErr):
		console.Error(fmt.Sprintf("Refused download larger than %s", utils.FormatBytes(uint64(sizeErr.Limit))))
	case errors.Is(err, downloader.ErrTimeout):
		console.Warning("Download stalled past the idle timeout")
	case errors.Is(err, downloader.ErrFilesystem):
		console.Critical("Could not write the download to disk")
	}
}

// defaultOutputPath names the file after the last URL path segment. A
// path ending in a slash names a directory listing, not a file.
func defaultOutputPath(rawPath string) string {
	if strings.HasSuffix(rawPath, "/") {
		return "download"
	}
	base := filepath.Base(filepath.FromSlash(rawPath))
	if base == "" || base == "." || base == "/" || base == string(filepath.Separator) {
		return "download"
	}
	return base
}
