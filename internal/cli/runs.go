package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/catalog"
	"github.com/rose-bag/rose/internal/runlog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded filter runs",
		Run:   runRuns,
	}
	cmd.Flags().StringP("input", "i", "", "Only runs for this input bag")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	RootCmd.AddCommand(cmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	conn := openDB(cfg)
	defer conn.Close()

	input, _ := cmd.Flags().GetString("input")
	limit, _ := cmd.Flags().GetInt("limit")

	log := runlog.New(conn)
	var (
		runs []runlog.Run
		err  error
	)
	if input != "" {
		runs, err = log.ListByInput(input, limit)
	} else {
		runs, err = log.List(limit)
	}
	if err != nil {
		exitErr("list runs", err)
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		when := time.Unix(int64(run.CreatedAt), 0).Format("2006-01-02 15:04:05")
		rows = append(rows, []string{
			run.RunID[:8],
			when,
			filepath.Base(run.InputPath),
			fmt.Sprintf("%d", len(run.Topics)),
			string(run.Status),
			run.Elapsed.Round(timePrecision).String(),
			catalog.FormatSize(run.SizeAfter),
		})
	}
	fmt.Println(renderTable(
		[]string{"Run", "When", "Input", "Topics", "Status", "Elapsed", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight},
	))
}
