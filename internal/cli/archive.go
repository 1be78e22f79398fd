package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/archive"
	"github.com/rose-bag/rose/internal/catalog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Keep compressed copies of bag files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "store <file>",
		Short: "Compress a file into the local archive",
		Args:  cobra.ExactArgs(1),
		Run:   runArchiveStore,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "restore <storage-path> <dest>",
		Short: "Decompress an archived file",
		Args:  cobra.ExactArgs(2),
		Run:   runArchiveRestore,
	})
	RootCmd.AddCommand(cmd)
}

func runArchiveStore(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	digest, storagePath, byteLen, err := archive.Store(cfg.ArchiveDir, args[0])
	if err != nil {
		exitErr("archive", err)
	}

	conn := openDB(cfg)
	defer conn.Close()
	if err := archive.Insert(conn, archive.NewRow(digest, storagePath, args[0], byteLen)); err != nil {
		exitErr("record archive", err)
	}

	fmt.Printf("archived %s (%s)\n  sha256: %s\n  path:   %s\n",
		args[0], catalog.FormatSize(byteLen), digest, storagePath)
}

func runArchiveRestore(cmd *cobra.Command, args []string) {
	if err := archive.Restore(args[0], args[1]); err != nil {
		exitErr("restore", err)
	}
	fmt.Printf("restored %s\n", args[1])
}
