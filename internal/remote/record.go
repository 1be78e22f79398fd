package remote

import (
	"database/sql"
	"time"
)

// UploadRow is the uploads table record for one published object.
type UploadRow struct {
	Key        string
	Remote     string
	SourcePath string
	ByteLen    int64
	Encrypted  bool
	CreatedAt  float64
}

// NewUploadRow stamps CreatedAt.
func NewUploadRow(key, remote, sourcePath string, byteLen int64, encrypted bool) UploadRow {
	return UploadRow{
		Key:        key,
		Remote:     remote,
		SourcePath: sourcePath,
		ByteLen:    byteLen,
		Encrypted:  encrypted,
		CreatedAt:  float64(time.Now().UnixNano()) / 1e9,
	}
}

// InsertUpload records a published object.
func InsertUpload(conn *sql.DB, row UploadRow) error {
	_, err := conn.Exec(
		`INSERT INTO uploads (key, remote, source_path, byte_len, encrypted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		row.Key, row.Remote, row.SourcePath, row.ByteLen, row.Encrypted, row.CreatedAt,
	)
	return err
}
