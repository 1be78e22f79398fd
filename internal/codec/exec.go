package codec

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rose-bag/rose/internal/rostime"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the exec client.
type Option func(*ExecClient)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(e Executor) Option {
	return func(c *ExecClient) {
		if e != nil {
			c.exec = e
		}
	}
}

// ExecClient implements Codec by invoking an external rosbag-io style tool.
// `<bin> info --json <path>` must print one JSON document describing the bag;
// `<bin> dump <in> --out <out> [--topics t1,t2] [--start-sec S --end-sec S]`
// must write the filtered bag.
type ExecClient struct {
	binary string
	exec   Executor
}

// NewExec constructs an exec-backed codec for the given tool binary.
func NewExec(binary string, opts ...Option) (*ExecClient, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("codec binary required")
	}
	c := &ExecClient{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// infoDoc is the tool's `info --json` output.
type infoDoc struct {
	Topics []string          `json:"topics"`
	Types  map[string]string `json:"types"`
	Start  stampDoc          `json:"start"`
	End    stampDoc          `json:"end"`
}

type stampDoc struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

// Inspect reads a bag's topics, types, and time range.
func (c *ExecClient) Inspect(ctx context.Context, path string) (*Info, error) {
	var out strings.Builder
	err := c.exec.Run(ctx, c.binary, []string{"info", "--json", path}, func(line string) {
		out.WriteString(line)
		out.WriteByte('\n')
	})
	if err != nil {
		return nil, &Error{Path: path, Op: "inspect", Err: err}
	}
	var doc infoDoc
	if err := json.Unmarshal([]byte(out.String()), &doc); err != nil {
		return nil, &Error{Path: path, Op: "inspect", Err: fmt.Errorf("parse info output: %w", err)}
	}
	return &Info{
		Topics: doc.Topics,
		Types:  doc.Types,
		TimeRange: rostime.Range{
			Start: rostime.Timestamp{Sec: doc.Start.Sec, Nsec: doc.Start.Nsec},
			End:   rostime.Timestamp{Sec: doc.End.Sec, Nsec: doc.End.Nsec},
		},
	}, nil
}

// Filter writes a filtered copy of req.Input to req.Output and returns the
// wall-clock duration of the export.
func (c *ExecClient) Filter(ctx context.Context, req FilterRequest) (time.Duration, error) {
	args := []string{"dump", req.Input, "--out", req.Output}
	if len(req.Topics) > 0 {
		args = append(args, "--topics", strings.Join(req.Topics, ","))
	}
	if !req.Window.Start.IsZero() || !req.Window.End.IsZero() {
		args = append(args,
			"--start-sec", fmt.Sprintf("%d.%09d", req.Window.Start.Sec, req.Window.Start.Nsec),
			"--end-sec", fmt.Sprintf("%d.%09d", req.Window.End.Sec, req.Window.End.Nsec),
		)
	}
	started := time.Now()
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return 0, &Error{Path: req.Input, Op: "filter", Err: err}
	}
	return time.Since(started), nil
}

// commandExecutor runs real processes.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if onStdout == nil {
		if err := cmd.Run(); err != nil {
			return wrapExecErr(err, &stderr)
		}
		return nil
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		onStdout(scanner.Text())
	}
	scanErr := scanner.Err()
	if err := cmd.Wait(); err != nil {
		return wrapExecErr(err, &stderr)
	}
	return scanErr
}

func wrapExecErr(err error, stderr *strings.Builder) error {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
