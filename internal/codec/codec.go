// Package codec is the port to the external bag decode/encode tooling.
// The catalog and job runner only ever see the Codec interface; the
// production implementation shells out to an external tool (see exec.go).
package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/rose-bag/rose/internal/rostime"
)

// Info is the metadata returned by inspecting a bag.
type Info struct {
	Topics []string
	// Types maps topic name to message type.
	Types     map[string]string
	TimeRange rostime.Range
}

// FilterRequest describes one filtered export.
type FilterRequest struct {
	Input  string
	Output string
	Topics []string
	Window rostime.Range
}

// Codec loads bag metadata and performs filtered exports. Implementations
// must be safe for concurrent use; each call is atomic from the caller's
// point of view.
type Codec interface {
	Inspect(ctx context.Context, path string) (*Info, error)
	Filter(ctx context.Context, req FilterRequest) (time.Duration, error)
}

// Error wraps a failure from the underlying bag tooling.
type Error struct {
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
