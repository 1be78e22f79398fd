// Package archive keeps zstd-compressed, content-addressed copies of
// filtered bag outputs.
package archive

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Store compresses the file at srcPath into dir, content-addressed by the
// sha256 of the uncompressed bytes. Returns sha256 hex, storage path, and
// the uncompressed byte length. Storing the same content twice dedupes.
func Store(dir, srcPath string) (sha256Hex, storagePath string, byteLen int64, err error) {
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return "", "", 0, fmt.Errorf("read source: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", 0, err
	}
	h := sha256.Sum256(content)
	sha256Hex = hex.EncodeToString(h[:])
	// Shard: first 2 chars / full hash
	subDir := filepath.Join(dir, sha256Hex[:2])
	if err := os.MkdirAll(subDir, 0755); err != nil {
		return "", "", 0, err
	}
	storagePath = filepath.Join(subDir, sha256Hex+".zst")

	// Check if exists (dedupe)
	if _, err := os.Stat(storagePath); err == nil {
		return sha256Hex, storagePath, int64(len(content)), nil
	}

	f, err := os.Create(storagePath)
	if err != nil {
		return "", "", 0, err
	}
	defer f.Close()
	w, err := zstd.NewWriter(f)
	if err != nil {
		os.Remove(storagePath)
		return "", "", 0, err
	}
	n, err := w.Write(content)
	w.Close()
	if err != nil {
		os.Remove(storagePath)
		return "", "", 0, err
	}
	if n != len(content) {
		os.Remove(storagePath)
		return "", "", 0, fmt.Errorf("incomplete write")
	}
	return sha256Hex, storagePath, int64(len(content)), nil
}

// Restore decompresses an archived object to destPath.
func Restore(storagePath, destPath string) error {
	src, err := os.Open(storagePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()
	r, err := zstd.NewReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(destPath)
		return err
	}
	return dst.Close()
}

// Row for DB insertion into the archives table.
type Row struct {
	Sha256      string
	StoragePath string
	SourcePath  string
	ByteLen     int64
	Compression string
	CreatedAt   float64
}

// NewRow returns a Row for the stored archive object.
func NewRow(sha256Hex, storagePath, sourcePath string, byteLen int64) Row {
	return Row{
		Sha256:      sha256Hex,
		StoragePath: storagePath,
		SourcePath:  sourcePath,
		ByteLen:     byteLen,
		Compression: "zstd",
		CreatedAt:   float64(time.Now().UnixNano()) / 1e9,
	}
}

// Insert records the row in the archives table. Re-inserting the same
// content is a no-op.
func Insert(conn *sql.DB, row Row) error {
	_, err := conn.Exec(
		`INSERT OR IGNORE INTO archives (sha256, storage_path, source_path, byte_len, compression, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		row.Sha256, row.StoragePath, row.SourcePath, row.ByteLen, row.Compression, row.CreatedAt,
	)
	return err
}
