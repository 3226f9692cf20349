package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const keySize = 32

var ErrInvalidCiphertext = errors.New("invalid ciphertext format")

// Cipher is the reversible transform applied to tokens before they are
// persisted. Stored values look like "nonce:ciphertext", both hex encoded.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a secret key. The key must be at least 32 bytes;
// only the first 32 are used (AES-256).
func New(key string) (*Cipher, error) {
	if len(key) < keySize {
		return nil, fmt.Errorf("encryption key must be at least %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher([]byte(key[:keySize]))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	parts := strings.SplitN(ciphertext, ":", 2)
	if len(parts) != 2 {
		return "", ErrInvalidCiphertext
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}

	return string(plaintext), nil
}
