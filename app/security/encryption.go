package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	keyFileName = "key.bin"
	keySize     = 32 // AES-256
)

// Sealer encrypts configuration secrets with a key kept next to the config file
type Sealer struct {
	keyPath string
	once    sync.Once
	key     []byte
	keyErr  error
}

// NewSealer creates a sealer whose key lives in dir
func NewSealer(dir string) *Sealer {
	return &Sealer{keyPath: filepath.Join(dir, keyFileName)}
}

// KeyPath returns the path of the key file
func (s *Sealer) KeyPath() string {
	return s.keyPath
}

// loadKey reads the key, generating it on first use
func (s *Sealer) loadKey() ([]byte, error) {
	s.once.Do(func() {
		if data, err := os.ReadFile(s.keyPath); err == nil {
			if len(data) != keySize {
				s.keyErr = fmt.Errorf("invalid key size: expected %d bytes, got %d", keySize, len(data))
				return
			}
			s.key = data
			return
		}

		if err := os.MkdirAll(filepath.Dir(s.keyPath), 0755); err != nil {
			s.keyErr = fmt.Errorf("could not create key directory: %w", err)
			return
		}
		key := make([]byte, keySize)
		if _, err := rand.Read(key); err != nil {
			s.keyErr = fmt.Errorf("could not generate random key: %w", err)
			return
		}
		// Owner-only permissions
		if err := os.WriteFile(s.keyPath, key, 0600); err != nil {
			s.keyErr = fmt.Errorf("could not write key file: %w", err)
			return
		}
		s.key = key
	})
	return s.key, s.keyErr
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	key, err := s.loadKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("could not create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}
	return aead, nil
}

// Encrypt seals plaintext with AES-GCM and returns base64 text for JSON storage
func (s *Sealer) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := s.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("could not generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt
func (s *Sealer) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("could not decode ciphertext: %w", err)
	}
	aead, err := s.gcm()
	if err != nil {
		return "", err
	}
	if len(data) < aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, body := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("could not decrypt: %w", err)
	}
	return string(plaintext), nil
}

// DecryptOrPlain decrypts value, returning it unchanged when it was stored as plain text
func (s *Sealer) DecryptOrPlain(value string) string {
	plain, err := s.Decrypt(value)
	if err != nil {
		return value
	}
	return plain
}
