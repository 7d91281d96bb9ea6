// Where: cli/internal/batch/converter.go
// What: Parallel batch conversion of source app directories.
// Why: Catalogs hold hundreds of apps; one malformed app must cost one
// failure record, never the rest of the batch.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/appbridge/cli/internal/assets"
	"github.com/appbridge/cli/internal/casaos"
	"github.com/appbridge/cli/internal/descriptor"
	"github.com/appbridge/cli/internal/fileops"
	"github.com/appbridge/cli/internal/transform"
)

// Options configures one batch run.
type Options struct {
	SourceDir      string
	OutputDir      string
	DownloadAssets bool
	UpstreamURL    string
	// Only, when non-empty, restricts the run to the named app ids. Ids
	// discovery did not find are ignored.
	Only []string
	// Progress, when set, is called once per job completion with the job's
	// final state. A panicking callback is contained and logged; it cannot
	// corrupt the aggregate counts.
	Progress func(*Job)
}

// Converter runs many conversions over a bounded worker pool. The shared
// transformer is read-only after construction; each job parses with its own
// stateless call, so workers share nothing mutable.
type Converter struct {
	workers     int
	transformer *transform.Transformer
	log         *logrus.Entry
}

// NewConverter creates a batch converter. workers == 0 selects the host's
// available parallelism; a negative count is an error.
func NewConverter(transformer *transform.Transformer, workers int) (*Converter, error) {
	if workers < 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return &Converter{
		workers:     workers,
		transformer: transformer,
		log:         logrus.WithField("component", "batch"),
	}, nil
}

// DiscoverApps lists the immediate subdirectories of sourceDir that contain
// a source document, sorted by name so job indices are deterministic.
func DiscoverApps(sourceDir string) ([]string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path is not a directory: %s", sourceDir)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(sourceDir, entry.Name())
		if fileops.FileExists(filepath.Join(dir, casaos.ComposeFileName)) {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Run converts every discovered app under opts.SourceDir. Per-job failures
// are recorded and never abort the batch. Cancelling ctx stops dispatching
// new jobs; jobs already running finish and are counted.
func (c *Converter) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	dirs, err := DiscoverApps(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	if len(opts.Only) > 0 {
		keep := make(map[string]bool, len(opts.Only))
		for _, id := range opts.Only {
			keep[id] = true
		}
		filtered := dirs[:0]
		for _, dir := range dirs {
			if keep[filepath.Base(dir)] {
				filtered = append(filtered, dir)
			}
		}
		dirs = filtered
	}
	if len(dirs) == 0 {
		return &Result{}, nil
	}
	if err := fileops.EnsureDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	total := len(dirs)
	pending := make([]*Job, total)
	for i, dir := range dirs {
		pending[i] = &Job{
			Dir:    dir,
			AppID:  filepath.Base(dir),
			Index:  i + 1,
			Total:  total,
			Status: StatusPending,
		}
	}

	jobs := make(chan *Job)
	done := make(chan *Job)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				c.convertOne(ctx, job, opts)
				done <- job
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	go func() {
		defer close(jobs)
		for _, job := range pending {
			// Checked first so a cancellation observed between sends always
			// wins over a worker waiting for the next job.
			select {
			case <-ctx.Done():
				return
			default:
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- job:
			}
		}
	}()

	// Single collection point: only this loop touches the aggregate.
	result := &Result{}
	for job := range done {
		result.Total++
		switch job.Status {
		case StatusSuccess:
			result.SuccessCount++
		default:
			result.FailureCount++
			result.Errors = append(result.Errors, AppMessage{AppID: job.AppID, Message: job.Err.Error()})
		}
		for _, warning := range job.Warnings {
			result.Warnings = append(result.Warnings, AppMessage{AppID: job.AppID, Message: warning})
		}
		c.notify(opts.Progress, job)
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

func (c *Converter) notify(progress func(*Job), job *Job) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("app", job.AppID).Errorf("progress callback panicked: %v", r)
		}
	}()
	progress(job)
}

// convertOne runs the full parse-transform-write pipeline for one app. Any
// failure marks the job failed; asset problems only add warnings.
func (c *Converter) convertOne(ctx context.Context, job *Job, opts Options) {
	job.Status = StatusRunning

	composeFile := filepath.Join(job.Dir, casaos.ComposeFileName)
	app, warnings, err := casaos.ParseFile(composeFile)
	job.Warnings = append(job.Warnings, warnings...)
	if err != nil {
		c.fail(job, err)
		return
	}
	job.AppID = app.ID

	d, err := c.transformer.Transform(app, transform.Source{
		FilePath: composeFile,
		URL:      opts.UpstreamURL,
	})
	if err != nil {
		c.fail(job, err)
		return
	}
	EnrichMetadata(&d.Metadata, app)

	appDir := filepath.Join(opts.OutputDir, app.ID)
	if err := descriptor.NewWriter(appDir).Write(d); err != nil {
		c.fail(job, err)
		return
	}

	if opts.DownloadAssets {
		manager := assets.NewManager(opts.OutputDir)
		assetResult, err := manager.DownloadAll(ctx, app.Icon, app.Screenshots, app.ID)
		if err != nil {
			job.Warnings = append(job.Warnings, fmt.Sprintf("Asset download failed: %v", err))
		} else {
			job.Warnings = append(job.Warnings, assetResult.Warnings...)
		}
	}

	job.Status = StatusSuccess
}

func (c *Converter) fail(job *Job, err error) {
	job.Status = StatusFailed
	job.Err = err
	c.log.WithFields(logrus.Fields{"app": job.AppID, "dir": job.Dir}).Errorf("conversion failed: %v", err)
}
