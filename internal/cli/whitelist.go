package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/whitelist"
)

func init() {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage named topic whitelists",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List named whitelists",
		Run:   runWhitelistList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show the topics in a whitelist",
		Args:  cobra.ExactArgs(1),
		Run:   runWhitelistShow,
	})
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a whitelist from a topic list",
		Args:  cobra.ExactArgs(1),
		Run:   runWhitelistCreate,
	}
	create.Flags().StringP("topics", "t", "", "Comma-separated topics")
	cmd.AddCommand(create)
	RootCmd.AddCommand(cmd)
}

func runWhitelistList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	names, err := whitelist.List(cfg.WhitelistDir)
	if err != nil {
		exitErr("list whitelists", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func runWhitelistShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	path, err := whitelist.Resolve(cfg.WhitelistDir, args[0])
	if err != nil {
		exitErr("whitelist", err)
	}
	topics, err := whitelist.Load(path)
	if err != nil {
		exitErr("whitelist", err)
	}
	for _, topic := range topics {
		fmt.Println(topic)
	}
}

func runWhitelistCreate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	topicsFlag, _ := cmd.Flags().GetString("topics")

	var topics []string
	for _, t := range strings.Split(topicsFlag, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		exitErr("whitelist", fmt.Errorf("--topics is required"))
	}

	path := filepath.Join(cfg.WhitelistDir, args[0]+".txt")
	if err := whitelist.Save(path, topics); err != nil {
		exitErr("save whitelist", err)
	}
	fmt.Printf("wrote %s (%d topics)\n", path, len(topics))
}
