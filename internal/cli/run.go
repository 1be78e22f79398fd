package cli

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/catalog"
	"github.com/rose-bag/rose/internal/rostime"
	"github.com/rose-bag/rose/internal/runlog"
	"github.com/rose-bag/rose/internal/runner"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run <bag>...",
		Short: "Filter several bags concurrently with a shared topic selection",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRun,
	}
	cmd.Flags().StringP("topics", "t", "", "Comma-separated topics to keep (default: all)")
	cmd.Flags().StringP("whitelist", "w", "", "Whitelist name or path with topics to keep")
	cmd.Flags().String("start", "", `Window start, "yy/mm/dd HH:MM:SS"`)
	cmd.Flags().String("end", "", `Window end, "yy/mm/dd HH:MM:SS"`)
	cmd.Flags().IntP("jobs", "j", 0, "Max concurrent filter jobs (default: workers from config)")
	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	c := newCodec(cfg)
	ctx := cmd.Context()

	cat := catalog.New(c)
	for _, path := range args {
		if err := cat.Load(ctx, path); err != nil {
			exitErr("load bag", err)
		}
	}

	// The shared selection applies to every bag; topics a bag does not
	// carry are dropped from its own filter config.
	for _, topic := range requestedTopics(cfg, cmd) {
		if err := cat.SelectTopic(topic); err != nil {
			exitErr("select topic", err)
		}
	}

	if window, ok := requestedWindow(cmd); ok {
		for _, entry := range cat.Bags() {
			clamped, _ := rostime.Clamp(window, entry.Metadata.InitialRange)
			if err := cat.SetTimeRange(entry.Path, clamped); err != nil {
				exitErr("set time range", err)
			}
		}
	}

	workers, _ := cmd.Flags().GetInt("jobs")
	if workers <= 0 {
		workers = cfg.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	type result struct {
		path string
		cfg  catalog.FilterConfig
		err  error
	}
	entries := cat.Bags()
	results := make([]result, len(entries))

	r := runner.New(c, cat)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, entry := range entries {
		fcfg, err := cat.FilterConfig(entry.Path)
		if err != nil {
			exitErr("filter config", err)
		}
		wg.Add(1)
		go func(i int, entry catalog.Entry, fcfg catalog.FilterConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job, err := r.Submit(ctx, entry.Path, fcfg, entry.OutputPath)
			if err != nil {
				results[i] = result{path: entry.Path, cfg: fcfg, err: err}
				return
			}
			results[i] = result{path: entry.Path, cfg: fcfg, err: job.Wait()}
		}(i, entry, fcfg)
	}
	wg.Wait()

	conn := openDB(cfg)
	defer conn.Close()
	log := runlog.New(conn)

	failed := 0
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		entry, ok := cat.Bag(res.path)
		if !ok {
			continue
		}
		recordRun(log, entry, res.cfg, res.err)
		if res.err != nil {
			failed++
		}
		topicsLabel := "all"
		if len(res.cfg.Topics) > 0 {
			topicsLabel = fmt.Sprintf("%d", len(res.cfg.Topics))
		}
		rows = append(rows, []string{
			filepath.Base(entry.Path),
			topicsLabel,
			entry.CurrentRange.String(),
			string(entry.Status),
			entry.Elapsed.Round(timePrecision).String(),
			catalog.FormatSize(entry.Metadata.SizeBytes),
			catalog.FormatSize(entry.SizeAfterFilter),
		})
	}

	fmt.Println(renderTable(
		[]string{"Bag", "Topics", "Window", "Status", "Elapsed", "Size", "Filtered"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))

	if failed > 0 {
		exitErr("run", fmt.Errorf("%d of %d jobs failed", failed, len(results)))
	}
}
