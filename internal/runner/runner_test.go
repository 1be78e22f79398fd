package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rose-bag/rose/internal/catalog"
	"github.com/rose-bag/rose/internal/codec"
)

// blockingCodec lets tests hold a job open and observe filter requests.
type blockingCodec struct {
	mu       sync.Mutex
	requests []codec.FilterRequest
	release  chan struct{}
	err      error
	output   []byte
}

func newBlockingCodec() *blockingCodec {
	return &blockingCodec{release: make(chan struct{})}
}

func (b *blockingCodec) Inspect(context.Context, string) (*codec.Info, error) {
	return nil, errors.New("not used")
}

func (b *blockingCodec) Filter(_ context.Context, req codec.FilterRequest) (time.Duration, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	<-b.release
	if b.err != nil {
		return 0, b.err
	}
	if b.output != nil {
		if err := os.WriteFile(req.Output, b.output, 0644); err != nil {
			return 0, err
		}
	}
	return 42 * time.Millisecond, nil
}

// recordingSink records catalog writes per bag.
type recordingSink struct {
	mu       sync.Mutex
	statuses map[string][]catalog.Status
	elapsed  map[string]time.Duration
	sizes    map[string]int64
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		statuses: make(map[string][]catalog.Status),
		elapsed:  make(map[string]time.Duration),
		sizes:    make(map[string]int64),
	}
}

func (s *recordingSink) SetStatus(path string, st catalog.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = append(s.statuses[path], st)
	return nil
}

func (s *recordingSink) SetElapsed(path string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed[path] = d
	return nil
}

func (s *recordingSink) SetSizeAfterFilter(path string, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes[path] = n
	return nil
}

func (s *recordingSink) lastStatus(path string) catalog.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.statuses[path]
	if len(states) == 0 {
		return ""
	}
	return states[len(states)-1]
}

func TestSubmitSuccess(t *testing.T) {
	cdc := newBlockingCodec()
	cdc.output = []byte("filtered contents")
	sink := newRecordingSink()
	r := New(cdc, sink)

	out := filepath.Join(t.TempDir(), "a_filtered.bag")
	job, err := r.Submit(context.Background(), "/data/a.bag", catalog.FilterConfig{Topics: []string{"/gps"}}, out)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	close(cdc.release)
	require.NoError(t, job.Wait())

	assert.Equal(t, 42*time.Millisecond, job.Elapsed())
	assert.Equal(t, int64(len("filtered contents")), job.OutputSize())
	assert.Equal(t, catalog.StatusSuccess, sink.lastStatus("/data/a.bag"))
	assert.Equal(t, 42*time.Millisecond, sink.elapsed["/data/a.bag"])
	assert.Equal(t, int64(len("filtered contents")), sink.sizes["/data/a.bag"])
	assert.False(t, r.InFlight("/data/a.bag"))
}

func TestSubmitSingleFlight(t *testing.T) {
	cdc := newBlockingCodec()
	sink := newRecordingSink()
	r := New(cdc, sink)

	out := filepath.Join(t.TempDir(), "out.bag")
	job, err := r.Submit(context.Background(), "/data/a.bag", catalog.FilterConfig{}, out)
	require.NoError(t, err)
	assert.True(t, r.InFlight("/data/a.bag"))

	_, err = r.Submit(context.Background(), "/data/a.bag", catalog.FilterConfig{}, out)
	assert.ErrorIs(t, err, ErrJobInFlight)

	// A different bag is not blocked.
	job2, err := r.Submit(context.Background(), "/data/b.bag", catalog.FilterConfig{}, out+"2")
	require.NoError(t, err)

	close(cdc.release)
	require.NoError(t, job.Wait())
	require.NoError(t, job2.Wait())

	// After resolution the slot is free again.
	job3, err := r.Submit(context.Background(), "/data/a.bag", catalog.FilterConfig{}, out)
	require.NoError(t, err)
	require.NoError(t, job3.Wait())
}

func TestJobFailureIsolated(t *testing.T) {
	cdc := newBlockingCodec()
	cdc.err = &codec.Error{Path: "/data/a.bag", Op: "filter", Err: errors.New("disk full")}
	sink := newRecordingSink()
	r := New(cdc, sink)

	job, err := r.Submit(context.Background(), "/data/a.bag", catalog.FilterConfig{}, filepath.Join(t.TempDir(), "o.bag"))
	require.NoError(t, err)
	close(cdc.release)

	werr := job.Wait()
	require.Error(t, werr)
	var cerr *codec.Error
	assert.ErrorAs(t, werr, &cerr)
	assert.Equal(t, catalog.StatusError, sink.lastStatus("/data/a.bag"))
	assert.NotContains(t, sink.elapsed, "/data/a.bag")
	assert.False(t, r.InFlight("/data/a.bag"))
}

// A failed job reconciles into the real catalog without touching other bags.
func TestFailureReconciledIntoCatalog(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bag")
	inspectOnly := &inspectCodec{
		info: &codec.Info{Topics: []string{"/imu"}},
	}
	cat := catalog.New(inspectOnly)
	require.NoError(t, cat.Load(context.Background(), a))

	cdc := newBlockingCodec()
	cdc.err = errors.New("boom")
	r := New(cdc, cat)

	job, err := r.Submit(context.Background(), a, catalog.FilterConfig{}, filepath.Join(dir, "o.bag"))
	require.NoError(t, err)
	close(cdc.release)
	require.Error(t, job.Wait())

	entry, ok := cat.Single()
	require.True(t, ok)
	assert.Equal(t, catalog.StatusError, entry.Status)
}

type inspectCodec struct {
	info *codec.Info
}

func (c *inspectCodec) Inspect(context.Context, string) (*codec.Info, error) {
	return c.info, nil
}

func (c *inspectCodec) Filter(context.Context, codec.FilterRequest) (time.Duration, error) {
	return 0, errors.New("not used")
}

func TestConcurrentDistinctBags(t *testing.T) {
	cdc := newBlockingCodec()
	sink := newRecordingSink()
	r := New(cdc, sink)

	dir := t.TempDir()
	var jobs []*Job
	for _, name := range []string{"a.bag", "b.bag", "c.bag"} {
		job, err := r.Submit(context.Background(), "/data/"+name, catalog.FilterConfig{}, filepath.Join(dir, name))
		require.NoError(t, err)
		jobs = append(jobs, job)
	}

	// All three must be in flight at once before any is released.
	for _, name := range []string{"a.bag", "b.bag", "c.bag"} {
		assert.True(t, r.InFlight("/data/"+name))
	}

	close(cdc.release)
	for _, job := range jobs {
		require.NoError(t, job.Wait())
	}
	for _, name := range []string{"a.bag", "b.bag", "c.bag"} {
		assert.Equal(t, catalog.StatusSuccess, sink.lastStatus("/data/"+name))
	}
}

func TestFilterRequestCarriesConfig(t *testing.T) {
	cdc := newBlockingCodec()
	sink := newRecordingSink()
	r := New(cdc, sink)

	cfg := catalog.FilterConfig{Topics: []string{"/gps", "/imu"}}
	job, err := r.Submit(context.Background(), "/data/a.bag", cfg, "/data/out.bag")
	require.NoError(t, err)
	close(cdc.release)
	_ = job.Wait()

	cdc.mu.Lock()
	defer cdc.mu.Unlock()
	require.Len(t, cdc.requests, 1)
	assert.Equal(t, "/data/a.bag", cdc.requests[0].Input)
	assert.Equal(t, "/data/out.bag", cdc.requests[0].Output)
	assert.Equal(t, []string{"/gps", "/imu"}, cdc.requests[0].Topics)
}
