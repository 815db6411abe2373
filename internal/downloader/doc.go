// Package downloader streams a single remote file to disk under a size
// bound.
//
// Each attempt fetches the source, rejects a declared length above the
// limit before touching the disk, streams into a staging file in the
// destination directory while counting bytes, and renames the staging
// file onto the destination only after the body completed within the
// limit. Failed attempts remove their staging file. Attempts are retried
// with a linear backoff:
//
//	path, err := downloader.Download("https://example.com/file.iso", "out/file.iso",
//		downloader.WithMaxSize(512<<20),
//		downloader.WithMaxRetries(5),
//	)
//
// Errors are *SizeExceededError, *TransportError or *FilesystemError and
// match ErrSizeExceeded, ErrTransport and ErrFilesystem with errors.Is.
package downloader
