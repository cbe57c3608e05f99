package credentials

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// Sealed file layout: magic | salt | nonce | secretbox(token)
var sealedMagic = []byte("msc1")

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// ErrUnsealFailed is returned when the file was sealed with another key or tampered with.
var ErrUnsealFailed = errors.New("credentials: unable to unseal token")

// SealedFileStore keeps the token encrypted with NaCl secretbox under a key
// derived from a passphrase with Argon2id.
type SealedFileStore struct {
	path       string
	passphrase []byte
}

var _ Store = (*SealedFileStore)(nil)

func NewSealedFileStore(path, passphrase string) *SealedFileStore {
	return &SealedFileStore{path: path, passphrase: []byte(passphrase)}
}

func (s *SealedFileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}

	header := len(sealedMagic) + saltSize + nonceSize
	if len(data) < header+secretbox.Overhead || !bytes.HasPrefix(data, sealedMagic) {
		return "", ErrUnsealFailed
	}

	salt := data[len(sealedMagic) : len(sealedMagic)+saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], data[len(sealedMagic)+saltSize:header])

	key := s.deriveKey(salt)
	plain, ok := secretbox.Open(nil, data[header:], &nonce, &key)
	if !ok {
		return "", ErrUnsealFailed
	}
	return string(plain), nil
}

func (s *SealedFileStore) Save(_ context.Context, token string) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	key := s.deriveKey(salt)
	out := make([]byte, 0, len(sealedMagic)+saltSize+nonceSize+len(token)+secretbox.Overhead)
	out = append(out, sealedMagic...)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(token), &nonce, &key)

	return writeFileAtomic(s.path, out)
}

func (s *SealedFileStore) Clear(_ context.Context) error {
	return removeIfExists(s.path)
}

func (s *SealedFileStore) deriveKey(salt []byte) [keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey(s.passphrase, salt, 1, 64*1024, 4, keySize))
	return key
}
