package downloader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	StagingPrefix = ".guardl-"
	StagingSuffix = ".part"
)

// StagingPattern matches staging files for filepath.Glob within a directory.
const StagingPattern = StagingPrefix + "*" + StagingSuffix

// streamState is owned by a single attempt.
type streamState struct {
	written  int64
	declared int64
}

// stageAndCommit writes body to a fresh staging file next to dest and
// renames it onto dest once the whole body has arrived within limit.
// On any failure the staging file is removed and dest is left alone.
func stageAndCommit(body io.Reader, declared int64, req Request, progress ProgressFunc, log zerolog.Logger) (int64, error) {
	dir := filepath.Dir(req.DestinationPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, &FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	stagingPath := filepath.Join(dir, StagingPrefix+uuid.NewString()+StagingSuffix)
	file, err := os.OpenFile(stagingPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, &FilesystemError{Op: "create", Path: stagingPath, Err: err}
	}
	log.Debug().Str("staging", filepath.Base(stagingPath)).Msg("Staging file created")

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			log.Debug().Err(err).Msg("Closing staging file")
		}
		if err := os.Remove(stagingPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("staging", stagingPath).Msg("Failed to remove staging file")
		}
	}()

	state := streamState{declared: declared}
	total := declared
	if total <= 0 {
		total = -1
	}

	buffer := make([]byte, chunkSize)
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			state.written += int64(n)
			if state.written > req.MaxSizeBytes {
				return state.written, &SizeExceededError{
					URL:      req.URL,
					Limit:    req.MaxSizeBytes,
					Observed: state.written,
				}
			}
			if _, err := file.Write(buffer[:n]); err != nil {
				return state.written, &FilesystemError{Op: "write", Path: stagingPath, Err: err}
			}
			if progress != nil {
				progress(state.written, total)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return state.written, &TransportError{URL: req.URL, Err: fmt.Errorf("reading response body: %w", readErr)}
		}
	}

	if state.declared > 0 && state.written != state.declared {
		log.Debug().Int64("declared", state.declared).Int64("written", state.written).Msg("Body length differs from declared length")
	}

	if err := file.Sync(); err != nil {
		return state.written, &FilesystemError{Op: "sync", Path: stagingPath, Err: err}
	}
	if err := file.Close(); err != nil {
		return state.written, &FilesystemError{Op: "close", Path: stagingPath, Err: err}
	}
	if err := os.Rename(stagingPath, req.DestinationPath); err != nil {
		return state.written, &FilesystemError{Op: "rename", Path: req.DestinationPath, Err: err}
	}
	committed = true
	return state.written, nil
}
