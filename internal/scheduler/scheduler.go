package scheduler

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/tanq16/guardl/internal/utils"
)

// Job is one independent download in a batch.
type Job struct {
	ID         string
	URL        string
	OutputPath string
}

// Result pairs a Job with the committed path or its final error.
type Result struct {
	Job  Job
	Path string
	Err  error
}

// DownloadFunc performs a single job synchronously.
type DownloadFunc func(job Job) (string, error)

var ErrDuplicateOutput = errors.New("output path used by more than one job")

func NewJob(url, outputPath string) Job {
	return Job{ID: uuid.NewString(), URL: url, OutputPath: outputPath}
}

// JobsFromEntries converts a batch list into jobs.
func JobsFromEntries(entries []utils.DownloadEntry) []Job {
	jobs := make([]Job, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, NewJob(entry.URL, entry.OutputPath))
	}
	return jobs
}

// Run executes jobs with numWorkers goroutines and returns one Result per
// job in input order, plus all job errors joined. Two jobs writing the
// same output path would race on the final rename, so such batches are
// rejected before anything starts.
func Run(jobs []Job, numWorkers int, fn DownloadFunc) ([]Result, error) {
	log := utils.GetLogger("scheduler")
	if err := checkOutputs(jobs); err != nil {
		return nil, err
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	numWorkers = min(numWorkers, len(jobs))

	results := make([]Result, len(jobs))
	jobCh := make(chan int, len(jobs))
	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobCh {
				job := jobs[i]
				log.Debug().Int("worker", workerID).Str("job", job.ID).Str("url", job.URL).Msg("Job started")
				path, err := fn(job)
				results[i] = Result{Job: job, Path: path, Err: err}
				if err != nil {
					log.Error().Err(err).Str("job", job.ID).Msg("Job failed")
					continue
				}
				log.Debug().Str("job", job.ID).Str("path", path).Msg("Job completed")
			}
		}(w)
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Job.URL, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func checkOutputs(jobs []Job) error {
	seen := make(map[string]string, len(jobs))
	for _, job := range jobs {
		key := filepath.Clean(job.OutputPath)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateOutput, job.OutputPath, prev, job.URL)
		}
		seen[key] = job.URL
	}
	return nil
}
