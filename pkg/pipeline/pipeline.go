// Package pipeline runs one export: locate the workbook, extract it, write
// the audit JSON, sync it, record the outcome and clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"exportsync/pkg/extract"
	"exportsync/pkg/history"
	"exportsync/pkg/models"
	"exportsync/pkg/syncer"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Syncer writes a workbook to its destination.
type Syncer interface {
	Sync(ctx context.Context, wb *models.Workbook, opts syncer.Options) syncer.Report
}

// Recorder persists run outcomes.
type Recorder interface {
	Record(ctx context.Context, entries []history.Entry) error
}

// Options configure a Runner.
type Options struct {
	DownloadDir     string
	DownloadPattern string
	DownloadTimeout time.Duration
	// OutputJSON is the audit file path, empty to skip it.
	OutputJSON string
	// DeleteSource removes the workbook after a fully successful sync.
	DeleteSource bool
}

// Request describes one run.
type Request struct {
	// Path is the workbook to sync. When empty the newest file in the
	// download directory modified after Since is used.
	Path   string
	Since  time.Time
	Target string
	Clear  bool
}

// Result is the outcome of one run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Source    string
	Workbook  *models.Workbook
	Report    syncer.Report
}

func (r *Result) OK() bool {
	return r != nil && r.Report.OK()
}

// Runner executes runs one at a time.
type Runner struct {
	syncer   Syncer
	recorder Recorder
	opts     Options

	mu sync.Mutex
}

// NewRunner returns a Runner. recorder may be nil.
func NewRunner(s Syncer, recorder Recorder, opts Options) *Runner {
	if opts.DownloadPattern == "" {
		opts.DownloadPattern = "*.xlsx"
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	return &Runner{syncer: s, recorder: recorder, opts: opts}
}

// Run executes a run, failing with ErrRunInProgress if another is active.
// Locate and extraction failures return a nil Result. Sync failures return
// the Result together with the joined per-sheet errors.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := log.WithField("run", res.RunID)

	path := req.Path
	if path == "" {
		var err error
		path, err = extract.WaitForLatest(ctx, r.opts.DownloadDir, r.opts.DownloadPattern, req.Since, r.opts.DownloadTimeout)
		if err != nil {
			return nil, fmt.Errorf("locate workbook: %w", err)
		}
	}
	res.Source = path
	logger = logger.WithField("source", path)

	wb, err := extract.Load(path)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	res.Workbook = wb

	if r.opts.OutputJSON != "" {
		if err := extract.WriteJSONFile(r.opts.OutputJSON, wb); err != nil {
			logger.WithError(err).Warn("Could not write audit JSON")
		} else {
			logger.WithField("path", r.opts.OutputJSON).Debug("Wrote audit JSON")
		}
	}

	res.Report = r.syncer.Sync(ctx, wb, syncer.Options{Target: req.Target, Clear: req.Clear, RunID: res.RunID})

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, entries(res)); err != nil {
			logger.WithError(err).Warn("Could not record run history")
		}
	}

	if err := res.Report.Err(); err != nil {
		logger.WithError(err).Error("Run finished with failures")
		return res, err
	}

	if r.opts.DeleteSource {
		if err := os.Remove(path); err != nil {
			logger.WithError(err).Warn("Could not delete source workbook")
		} else {
			logger.Debug("Deleted source workbook")
		}
	}
	logger.WithField("rows", res.Report.Rows()).Info("Run finished")
	return res, nil
}

func entries(res *Result) []history.Entry {
	out := make([]history.Entry, 0, len(res.Report.Results))
	for _, sr := range res.Report.Results {
		e := history.Entry{
			RunID:     res.RunID,
			StartedAt: res.StartedAt,
			Source:    res.Source,
			Sheet:     sr.Sheet,
			Rows:      sr.Rows,
			OK:        sr.OK(),
		}
		if sr.Err != nil {
			e.Error = sr.Err.Error()
		}
		out = append(out, e)
	}
	return out
}
