package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// MasterKeyEnv is consulted when no key file is configured.
const MasterKeyEnv = "CONSOLE_MASTER_KEY"

var ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")

// Sealer encrypts small blobs (the persisted credential pair) with
// XChaCha20-Poly1305. Output format: [24-byte nonce][ciphertext][16-byte tag].
type Sealer struct {
	key []byte
}

// NewSealer derives a 32-byte key from arbitrary key material via SHA-256.
func NewSealer(material []byte) (*Sealer, error) {
	if len(material) == 0 {
		return nil, fmt.Errorf("cryptox: empty key material")
	}

	sum := sha256.Sum256(material)
	return &Sealer{key: sum[:]}, nil
}

// LoadSealer resolves key material from, in order:
//  1. the file at path (created with a fresh random key if missing)
//  2. the CONSOLE_MASTER_KEY environment variable
//  3. an ephemeral random key, so nothing persisted survives a restart
//
// The returned string names the source for logging.
func LoadSealer(path string) (*Sealer, string, error) {
	if path != "" {
		material, err := loadOrCreateKeyFile(path)
		if err != nil {
			return nil, "", err
		}
		s, err := NewSealer(material)
		return s, "file", err
	}

	if env := os.Getenv(MasterKeyEnv); env != "" {
		s, err := NewSealer([]byte(env))
		return s, "env", err
	}

	ephemeral, err := RandomString(KeySize)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate ephemeral master key: %w", err)
	}
	s, err := NewSealer([]byte(ephemeral))
	return s, "ephemeral", err
}

func loadOrCreateKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		material := []byte(strings.TrimSpace(string(data)))
		if len(material) == 0 {
			return nil, fmt.Errorf("master key file %s is empty", path)
		}
		return material, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read master key file: %w", err)
	}

	material, err := RandomString(KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create master key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(material+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write master key file: %w", err)
	}

	return []byte(material), nil
}

// Seal encrypts plaintext. additionalData is authenticated but not stored;
// the same value must be passed to Open.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
