package remote

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the master key length in bytes.
	KeySize = 32
	// NonceSize is the XChaCha20-Poly1305 nonce length.
	NonceSize = 24
)

// envelopeMagic identifies encrypted payloads.
var envelopeMagic = []byte("RSE1")

// Seal encrypts plaintext with a fresh object key, wraps the object key
// with master, and returns a self-contained envelope:
// magic | nonce | wrappedKey(nonce|sealed) | ciphertext.
func Seal(master, plaintext []byte) ([]byte, error) {
	if len(master) != KeySize {
		return nil, fmt.Errorf("master key must be %d bytes", KeySize)
	}
	objKey := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, objKey); err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(objKey)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, envelopeMagic)

	wrapped, err := wrapKey(master, objKey)
	if err != nil {
		return nil, err
	}

	env := make([]byte, 0, len(envelopeMagic)+NonceSize+len(wrapped)+len(ciphertext))
	env = append(env, envelopeMagic...)
	env = append(env, nonce...)
	env = append(env, wrapped...)
	env = append(env, ciphertext...)
	return env, nil
}

// wrappedLen is nonce + key + poly1305 tag.
const wrappedLen = NonceSize + KeySize + 16

// wrapKey wraps objKey with master. Returns nonce|sealed.
func wrapKey(master, objKey []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(master)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return append(nonce, aead.Seal(nil, nonce, objKey, nil)...), nil
}

// Open decrypts an envelope produced by Seal.
func Open(master, envelope []byte) ([]byte, error) {
	if len(master) != KeySize {
		return nil, fmt.Errorf("master key must be %d bytes", KeySize)
	}
	if !IsSealed(envelope) {
		return nil, errors.New("not an encrypted envelope")
	}
	rest := envelope[len(envelopeMagic):]
	if len(rest) < NonceSize+wrappedLen {
		return nil, errors.New("envelope truncated")
	}
	nonce := rest[:NonceSize]
	wrapped := rest[NonceSize : NonceSize+wrappedLen]
	ciphertext := rest[NonceSize+wrappedLen:]

	wrapAead, err := chacha20poly1305.NewX(master)
	if err != nil {
		return nil, err
	}
	objKey, err := wrapAead.Open(nil, wrapped[:NonceSize], wrapped[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(objKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, envelopeMagic)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}
	return plaintext, nil
}

// IsSealed reports whether data carries the envelope magic.
func IsSealed(data []byte) bool {
	return len(data) >= len(envelopeMagic) && string(data[:len(envelopeMagic)]) == string(envelopeMagic)
}
