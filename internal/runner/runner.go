// Package runner dispatches asynchronous filter jobs and reconciles their
// results back into the catalog. At most one job per bag is in flight at a
// time; jobs for distinct bags run fully concurrently.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rose-bag/rose/internal/catalog"
	"github.com/rose-bag/rose/internal/codec"
)

// ErrJobInFlight reports a Submit for a bag whose previous job has not yet
// resolved.
var ErrJobInFlight = errors.New("filter job already in flight for bag")

// StatusSink receives per-bag job results. *catalog.Catalog satisfies it.
type StatusSink interface {
	SetStatus(path string, st catalog.Status) error
	SetElapsed(path string, d time.Duration) error
	SetSizeAfterFilter(path string, n int64) error
}

// Job tracks one submitted filter job.
type Job struct {
	ID  string
	Bag string

	done    chan struct{}
	err     error
	elapsed time.Duration
	size    int64
}

// Done is closed when the job resolves.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job resolves and returns its error, if any.
func (j *Job) Wait() error {
	<-j.done
	return j.err
}

// Err returns the job error. Valid only after Done is closed.
func (j *Job) Err() error { return j.err }

// Elapsed returns the filter duration. Valid only after Done is closed.
func (j *Job) Elapsed() time.Duration { return j.elapsed }

// OutputSize returns the filtered file size in bytes. Valid only after Done
// is closed.
func (j *Job) OutputSize() int64 { return j.size }

// Runner runs filter jobs, one goroutine per submission.
type Runner struct {
	codec codec.Codec
	sink  StatusSink

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New returns a runner that filters through c and reports into sink.
func New(c codec.Codec, sink StatusSink) *Runner {
	return &Runner{
		codec:    c,
		sink:     sink,
		inflight: make(map[string]struct{}),
	}
}

// InFlight reports whether a job for bagPath is currently running.
func (r *Runner) InFlight(bagPath string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[bagPath]
	return ok
}

// Submit starts one asynchronous filter job for bagPath. A second submission
// for the same bag before the first resolves fails with ErrJobInFlight.
// Job failures are isolated: they mark the bag's status Error and surface
// through the returned Job, never through other jobs.
func (r *Runner) Submit(ctx context.Context, bagPath string, cfg catalog.FilterConfig, outPath string) (*Job, error) {
	r.mu.Lock()
	if _, ok := r.inflight[bagPath]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobInFlight, bagPath)
	}
	r.inflight[bagPath] = struct{}{}
	r.mu.Unlock()

	job := &Job{
		ID:   uuid.NewString(),
		Bag:  bagPath,
		done: make(chan struct{}),
	}
	go r.run(ctx, job, cfg, outPath)
	return job, nil
}

func (r *Runner) run(ctx context.Context, job *Job, cfg catalog.FilterConfig, outPath string) {
	defer func() {
		// Release the single-flight slot before signalling completion so a
		// waiter can resubmit immediately.
		r.mu.Lock()
		delete(r.inflight, job.Bag)
		r.mu.Unlock()
		close(job.done)
	}()

	elapsed, err := r.codec.Filter(ctx, codec.FilterRequest{
		Input:  job.Bag,
		Output: outPath,
		Topics: cfg.Topics,
		Window: cfg.Window,
	})
	if err != nil {
		job.err = err
		// The sink serializes writes; a sink failure here has nowhere
		// better to go than the job error.
		if serr := r.sink.SetStatus(job.Bag, catalog.StatusError); serr != nil {
			job.err = errors.Join(err, serr)
		}
		return
	}

	job.elapsed = elapsed
	if fi, statErr := os.Stat(outPath); statErr == nil {
		job.size = fi.Size()
	}

	if serr := r.sink.SetElapsed(job.Bag, elapsed); serr != nil {
		job.err = serr
		return
	}
	if serr := r.sink.SetSizeAfterFilter(job.Bag, job.size); serr != nil {
		job.err = serr
		return
	}
	if serr := r.sink.SetStatus(job.Bag, catalog.StatusSuccess); serr != nil {
		job.err = serr
	}
}
