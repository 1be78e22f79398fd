package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rose-bag/rose/internal/catalog"
	"github.com/rose-bag/rose/internal/config"
	"github.com/rose-bag/rose/internal/remote"
)

func init() {
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Publish a filtered bag to the configured remote store",
		Args:  cobra.ExactArgs(1),
		Run:   runUpload,
	}
	upload.Flags().StringP("key", "k", "", "Object key (default: file base name)")
	RootCmd.AddCommand(upload)

	RootCmd.AddCommand(&cobra.Command{
		Use:   "download <key> <dest>",
		Short: "Fetch a published bag from the remote store",
		Args:  cobra.ExactArgs(2),
		Run:   runDownload,
	})
}

// buildStore constructs the configured remote store wrapped with retries.
// The label identifies the remote in upload records.
func buildStore(ctx context.Context, cfg *config.Config) (remote.Store, string) {
	var (
		inner remote.Store
		label string
	)
	switch cfg.Remote.Type {
	case "s3":
		s, err := remote.NewS3Store(ctx, remote.S3Config{
			Bucket:    cfg.Remote.Bucket,
			Prefix:    cfg.Remote.Prefix,
			Region:    cfg.Remote.Region,
			Endpoint:  cfg.Remote.Endpoint,
			PathStyle: cfg.Remote.PathStyle,
			AccessKey: cfg.Remote.AccessKey,
			SecretKey: cfg.Remote.SecretKey,
		})
		if err != nil {
			exitErr("remote", err)
		}
		inner = s
		label = "s3://" + cfg.Remote.Bucket
	case "folder":
		inner = remote.NewFolderStore(cfg.Remote.FolderPath)
		label = "folder:" + cfg.Remote.FolderPath
	default:
		exitErr("remote", errors.New("no remote store configured (set remote.type to s3 or folder)"))
	}
	return remote.NewRetryableStore(inner, remote.DefaultRetryConfig()), label
}

func buildUploader(ctx context.Context, cfg *config.Config) (*remote.Uploader, string) {
	store, label := buildStore(ctx, cfg)
	key, err := cfg.Remote.MasterKey()
	if err != nil {
		exitErr("remote key", err)
	}
	up, err := remote.NewUploader(store, key)
	if err != nil {
		exitErr("remote", err)
	}
	return up, label
}

func runUpload(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := cmd.Context()
	up, label := buildUploader(ctx, cfg)

	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = filepath.Base(args[0])
	}

	n, err := up.Upload(ctx, args[0], key)
	if err != nil {
		exitErr("upload", err)
	}

	conn := openDB(cfg)
	defer conn.Close()
	row := remote.NewUploadRow(key, label, args[0], n, up.Encrypted())
	if err := remote.InsertUpload(conn, row); err != nil {
		fmt.Printf("warning: record upload: %v\n", err)
	}

	suffix := ""
	if up.Encrypted() {
		suffix = ", encrypted"
	}
	fmt.Printf("uploaded %s to %s/%s (%s%s)\n", args[0], label, key, catalog.FormatSize(n), suffix)
}

func runDownload(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := cmd.Context()
	up, _ := buildUploader(ctx, cfg)

	if err := up.Download(ctx, args[0], args[1]); err != nil {
		exitErr("download", err)
	}
	fmt.Printf("downloaded %s\n", args[1])
}
