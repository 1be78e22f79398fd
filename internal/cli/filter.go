package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/catalog"
	"github.com/rose-bag/rose/internal/config"
	"github.com/rose-bag/rose/internal/rostime"
	"github.com/rose-bag/rose/internal/runlog"
	"github.com/rose-bag/rose/internal/runner"
	"github.com/rose-bag/rose/internal/whitelist"
)

func init() {
	cmd := &cobra.Command{
		Use:   "filter <bag>",
		Short: "Filter one bag by topic and time range",
		Args:  cobra.ExactArgs(1),
		Run:   runFilter,
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default: <stem>_filtered<ext> next to input)")
	cmd.Flags().StringP("topics", "t", "", "Comma-separated topics to keep (default: all)")
	cmd.Flags().StringP("whitelist", "w", "", "Whitelist name or path with topics to keep")
	cmd.Flags().String("start", "", `Window start, "yy/mm/dd HH:MM:SS"`)
	cmd.Flags().String("end", "", `Window end, "yy/mm/dd HH:MM:SS"`)
	RootCmd.AddCommand(cmd)
}

// requestedTopics resolves --topics / --whitelist into a topic list. An empty
// result means keep every topic.
func requestedTopics(cfg *config.Config, cmd *cobra.Command) []string {
	topicsFlag, _ := cmd.Flags().GetString("topics")
	whitelistFlag, _ := cmd.Flags().GetString("whitelist")

	if topicsFlag != "" && whitelistFlag != "" {
		exitErr("flags", fmt.Errorf("--topics and --whitelist are mutually exclusive"))
	}
	if whitelistFlag != "" {
		path, err := whitelist.Resolve(cfg.WhitelistDir, whitelistFlag)
		if err != nil {
			exitErr("whitelist", err)
		}
		topics, err := whitelist.Load(path)
		if err != nil {
			exitErr("whitelist", err)
		}
		return topics
	}

	var topics []string
	for _, t := range strings.Split(topicsFlag, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// requestedWindow parses --start/--end. Returns ok=false when no window was
// requested.
func requestedWindow(cmd *cobra.Command) (rostime.Range, bool) {
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")

	if startFlag == "" && endFlag == "" {
		return rostime.Range{}, false
	}
	if startFlag == "" || endFlag == "" {
		exitErr("flags", fmt.Errorf("--start and --end must be given together"))
	}
	rng, err := rostime.Parse(startFlag, endFlag)
	if err != nil {
		exitErr("parse time range", err)
	}
	return rng, true
}

func runFilter(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	c := newCodec(cfg)
	ctx := cmd.Context()

	cat := catalog.New(c)
	if err := cat.Load(ctx, args[0]); err != nil {
		exitErr("load bag", err)
	}
	entry, _ := cat.Single()

	for _, topic := range requestedTopics(cfg, cmd) {
		if err := cat.SelectTopic(topic); err != nil {
			exitErr("select topic", err)
		}
	}

	if rng, ok := requestedWindow(cmd); ok {
		clamped, clipped := rostime.Clamp(rng, entry.Metadata.InitialRange)
		if clipped {
			fmt.Printf("window clipped to bag bounds: %s\n", clamped)
		}
		if err := cat.SetTimeRange(entry.Path, clamped); err != nil {
			exitErr("set time range", err)
		}
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := cat.SetOutputFile(entry.Path, output); err != nil {
			exitErr("set output", err)
		}
	}

	entry, _ = cat.Single()
	fcfg, err := cat.FilterConfig(entry.Path)
	if err != nil {
		exitErr("filter config", err)
	}

	r := runner.New(c, cat)
	job, err := r.Submit(ctx, entry.Path, fcfg, entry.OutputPath)
	if err != nil {
		exitErr("submit job", err)
	}
	jobErr := job.Wait()

	entry, _ = cat.Single()
	conn := openDB(cfg)
	recordRun(runlog.New(conn), entry, fcfg, jobErr)
	conn.Close()

	if jobErr != nil {
		exitErr("filter", jobErr)
	}
	fmt.Printf("wrote %s (%s) in %s\n",
		entry.OutputPath, catalog.FormatSize(entry.SizeAfterFilter), entry.Elapsed.Round(timePrecision))
}

// recordRun persists one finished job to the run history. History failures
// are reported but do not fail the command.
func recordRun(log *runlog.Store, entry catalog.Entry, fcfg catalog.FilterConfig, jobErr error) {
	run := runlog.Run{
		InputPath:  entry.Path,
		OutputPath: entry.OutputPath,
		Topics:     fcfg.Topics,
		Window:     fcfg.Window,
		Status:     entry.Status,
		Elapsed:    entry.Elapsed,
		SizeBefore: entry.Metadata.SizeBytes,
		SizeAfter:  entry.SizeAfterFilter,
	}
	if jobErr != nil {
		run.Error = jobErr.Error()
	}
	if _, err := log.Record(run); err != nil {
		fmt.Printf("warning: record run: %v\n", err)
	}
}
