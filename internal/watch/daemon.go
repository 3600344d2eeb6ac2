package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dirtidy/internal/log"
	"dirtidy/internal/organize"
	"dirtidy/pkg/types"
)

// DefaultSettle is how long the tree must stay quiet before a run.
const DefaultSettle = 2 * time.Second

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running      bool      // Whether the daemon is currently active
	Target       string    // Tree being watched
	LastActivity time.Time // Time of last file event
	Runs         int       // Completed runs, failed ones included
	FilesMoved   int       // Total moves across all runs
	LastError    error     // Error from the most recent run, if any
}

// ReportFunc receives the outcome of every run.
type ReportFunc func(*types.Report, error)

// Daemon keeps a target tree organized. It runs the organizer once on
// start and again whenever file events stop arriving for the settle
// period. Runs never overlap.
type Daemon struct {
	target  string
	factory organize.Factory
	passes  organize.Passes
	settle  time.Duration
	log     log.Logger

	callback ReportFunc

	mutex  sync.RWMutex
	status DaemonStatus
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithSettle sets the quiet period before a run.
func WithSettle(d time.Duration) Option {
	return func(dm *Daemon) {
		if d > 0 {
			dm.settle = d
		}
	}
}

// WithPasses selects the passes each run executes.
func WithPasses(p organize.Passes) Option {
	return func(dm *Daemon) { dm.passes = p }
}

// WithCallback registers fn to receive every run's report.
func WithCallback(fn ReportFunc) Option {
	return func(dm *Daemon) { dm.callback = fn }
}

// NewDaemon creates a daemon for target. factory builds a fresh organizer
// for every run.
func NewDaemon(target string, factory organize.Factory, logger log.Logger, opts ...Option) *Daemon {
	if logger == nil {
		logger = log.Discard()
	}
	d := &Daemon{
		target:  target,
		factory: factory,
		passes:  organize.AllPasses(),
		settle:  DefaultSettle,
		log:     logger,
		status:  DaemonStatus{Target: target},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run watches the target until ctx is cancelled. It returns an error only
// if the watch could not be set up; failed runs are logged and reported
// through the callback.
func (d *Daemon) Run(ctx context.Context) error {
	d.mutex.Lock()
	if d.status.Running {
		d.mutex.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.status.Running = true
	d.mutex.Unlock()
	defer func() {
		d.mutex.Lock()
		d.status.Running = false
		d.mutex.Unlock()
	}()

	watcher, err := New(d.log)
	if err != nil {
		return err
	}
	if err := watcher.AddTree(d.target); err != nil {
		watcher.Stop()
		return fmt.Errorf("error watching %s: %w", d.target, err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("error starting watcher: %w", err)
	}
	defer watcher.Stop()

	d.log.Infof("Watching %q, settling for %s", d.target, d.settle)
	last := d.runOnce()

	timer := time.NewTimer(d.settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			d.log.Infof("Stopped watching %q", d.target)
			return nil

		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if last.covers(event) {
				continue
			}
			d.mutex.Lock()
			d.status.LastActivity = event.Timestamp
			d.mutex.Unlock()
			d.log.Debugf("Change detected: %s %q", event.Op, event.Path)

			timer.Reset(d.settle)

		case <-watcher.Overflow():
			d.log.Debugf("Change events overflowed, scheduling a full run")
			timer.Reset(d.settle)

		case <-timer.C:
			last = d.runOnce()
		}
	}
}

// runResult is what a finished run already accounts for.
type runResult struct {
	started time.Time
	moved   map[string]struct{}
}

// covers reports whether event needs no new run: it happened before the
// run scanned the tree, or it is one of the run's own moves landing.
func (r runResult) covers(event FileEvent) bool {
	if event.Timestamp.Before(r.started) {
		return true
	}
	_, ok := r.moved[event.Path]
	return ok
}

// runOnce builds a fresh organizer and runs it.
func (d *Daemon) runOnce() runResult {
	var (
		report *types.Report
		err    error
	)
	result := runResult{started: time.Now(), moved: make(map[string]struct{})}
	runner, err := d.factory()
	if err == nil {
		report, err = runner.Run(d.passes)
	}
	if report != nil {
		for _, m := range report.Moves {
			result.moved[m.DestinationPath] = struct{}{}
		}
	}

	d.mutex.Lock()
	d.status.Runs++
	d.status.LastError = err
	if report != nil {
		d.status.FilesMoved += len(report.Moves)
	}
	cb := d.callback
	d.mutex.Unlock()

	if err != nil {
		d.log.WithError(err).Errorf("Organizing %q failed", d.target)
	} else {
		d.log.Infof("Organized %q: %d moves, %d directories removed", d.target, len(report.Moves), len(report.RemovedDirs))
	}
	if cb != nil {
		cb(report, err)
	}
	return result
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.status
}
