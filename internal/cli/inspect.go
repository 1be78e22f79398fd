package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/catalog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "inspect <bag>",
		Short: "Show topics, message types and time range of a bag",
		Args:  cobra.ExactArgs(1),
		Run:   runInspect,
	}
	RootCmd.AddCommand(cmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	c := newCodec(cfg)

	info, err := c.Inspect(cmd.Context(), args[0])
	if err != nil {
		exitErr("inspect", err)
	}

	fmt.Printf("bag:        %s\n", args[0])
	if st, err := os.Stat(args[0]); err == nil {
		fmt.Printf("size:       %s\n", catalog.FormatSize(st.Size()))
	}
	fmt.Printf("time range: %s\n", info.TimeRange)
	fmt.Printf("topics:     %d\n\n", len(info.Topics))

	rows := make([][]string, 0, len(info.Topics))
	for _, topic := range info.Topics {
		rows = append(rows, []string{topic, info.Types[topic]})
	}
	fmt.Println(renderTable(
		[]string{"Topic", "Type"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}
