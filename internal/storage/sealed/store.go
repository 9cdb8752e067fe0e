// Package sealed encrypts values before they reach an underlying store.
// It stands in for platform secure storage: records at rest are
// XChaCha20-Poly1305 sealed with a key derived from a configured secret,
// and each record is bound to its key so values cannot be swapped.
// Plaintext JSON records written before encryption was enabled are still
// readable and are sealed in place on first read.
package sealed

import (
	"bytes"
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/storage"
)

const (
	keySalt = "horoscope-profile-store"
	keyInfo = "profile-encryption-v1"
)

var (
	ErrEmptySecret      = errors.New("storage secret cannot be empty")
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or authentication tag")
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	inner storage.Store
	aead  cipher.AEAD
}

// Wrap returns a Store that seals every value written to inner.
func Wrap(inner storage.Store, secret string) (*Store, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), []byte(keySalt), []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive storage key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return &Store{inner: inner, aead: aead}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.open(key, data)
	if err == nil {
		return plain, nil
	}
	if !isLegacyPlaintext(data) {
		return nil, err
	}
	if err := s.Set(ctx, key, data); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("reseal plaintext record failed")
	} else {
		logging.Ctx(ctx).Info().Str("key", key).Msg("sealed plaintext record")
	}
	return data, nil
}

func (s *Store) open(key string, data []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(data) < ns+s.aead.Overhead() {
		return nil, ErrDecryptionFailed
	}
	plain, err := s.aead.Open(nil, data[:ns], data[ns:], []byte(key))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}

// isLegacyPlaintext reports whether data is an unsealed JSON object.
func isLegacyPlaintext(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	return s.inner.Set(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *Store) Close() error {
	return s.inner.Close()
}
