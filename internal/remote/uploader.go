package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Uploader publishes local files to a Store, optionally sealing them with a
// master key.
type Uploader struct {
	store Store
	key   []byte // nil disables encryption
}

// NewUploader wraps store. key must be nil or KeySize bytes.
func NewUploader(store Store, key []byte) (*Uploader, error) {
	if key != nil && len(key) != KeySize {
		return nil, fmt.Errorf("master key must be %d bytes", KeySize)
	}
	return &Uploader{store: store, key: key}, nil
}

// Encrypted reports whether uploads are sealed.
func (u *Uploader) Encrypted() bool { return u.key != nil }

// Upload publishes the file at localPath under key. Returns the uploaded
// object size (after sealing, when enabled).
func (u *Uploader) Upload(ctx context.Context, localPath, key string) (int64, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", localPath, err)
	}
	if u.key != nil {
		data, err = Seal(u.key, data)
		if err != nil {
			return 0, fmt.Errorf("seal payload: %w", err)
		}
	}
	if err := u.store.PutAtomic(ctx, key, data); err != nil {
		return 0, fmt.Errorf("upload %s: %w", key, err)
	}
	return int64(len(data)), nil
}

// Download fetches an object to localPath, opening the envelope when the
// uploader has a key and the payload is sealed.
func (u *Uploader) Download(ctx context.Context, key, localPath string) error {
	data, err := u.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if IsSealed(data) {
		if u.key == nil {
			return fmt.Errorf("object %s is encrypted and no key is configured", key)
		}
		data, err = Open(u.key, data)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0644)
}
