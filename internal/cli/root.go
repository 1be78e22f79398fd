// Package cli implements the rose CLI commands.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/codec"
	"github.com/rose-bag/rose/internal/config"
	"github.com/rose-bag/rose/internal/db"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "rose",
	Short: "Filter ROS bag files by topic and time range",
	Long:  "A CLI for inspecting ROS bags and extracting topic/time slices from them. Whitelist-driven, SQLite-backed run history, optional archive and remote upload.",
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func newCodec(cfg *config.Config) codec.Codec {
	c, err := codec.NewExec(cfg.CodecBin)
	if err != nil {
		exitErr("codec", err)
	}
	return c
}

func openDB(cfg *config.Config) *sql.DB {
	if err := os.MkdirAll(filepath.Dir(cfg.DbPath), 0755); err != nil {
		exitErr("create data dir", err)
	}
	conn, err := db.Open(cfg.DbPath)
	if err != nil {
		exitErr("open database", err)
	}
	return conn
}

// timePrecision rounds elapsed durations for display.
const timePrecision = 10 * time.Millisecond

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
