// Package pii encrypts customer fields at the persistence boundary.
// AES-256-GCM with a random nonce per value; ciphertext is stored as
// base64(nonce || sealed).
package pii

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrKeyInvalid        = errors.New("pii encryption key must be 64 hex chars")
	ErrCiphertextInvalid = errors.New("pii ciphertext malformed")
)

// Codec seals and opens PII strings.
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type aesCodec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec from a 64-hex-char key.
func NewCodec(hexKey string) (Codec, error) {
	hexKey = strings.TrimSpace(hexKey)
	if len(hexKey) != 64 {
		return nil, ErrKeyInvalid
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, ErrKeyInvalid
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher failed: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm failed: %w", err)
	}
	return &aesCodec{aead: aead}, nil
}

func (c *aesCodec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce failed: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *aesCodec) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCiphertextInvalid
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	return string(plaintext), nil
}

type identityCodec struct{}

// NewIdentityCodec returns a pass-through codec for debug mode when no key
// is configured. Release mode must never use it.
func NewIdentityCodec() Codec {
	return identityCodec{}
}

func (identityCodec) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
func (identityCodec) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }
