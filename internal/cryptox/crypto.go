// Package cryptox seals secret payloads on the client before they leave the
// machine. The server only ever sees the sealed form.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
)

// ErrDecrypt is returned when a sealed payload cannot be opened, either
// because the passphrase is wrong or the data was altered.
var ErrDecrypt = errors.New("cannot decrypt payload")

// DeriveKey stretches a passphrase into an AES-256 key with argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, keySize)
}

// SealPayload encrypts plaintext with a key derived from passphrase and a
// fresh random salt. The result is base64(salt || nonce || ciphertext).
func SealPayload(plaintext, passphrase []byte) (string, error) {
	buf := make([]byte, saltSize+nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random: %w", err)
	}
	salt, nonce := buf[:saltSize], buf[saltSize:]

	aead, err := newAEAD(DeriveKey(passphrase, salt))
	if err != nil {
		return "", err
	}

	sealed := append(buf, aead.Seal(nil, nonce, plaintext, nil)...)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenPayload reverses SealPayload.
func OpenPayload(sealed string, passphrase []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if len(data) < saltSize+nonceSize {
		return nil, fmt.Errorf("%w: payload too short", ErrDecrypt)
	}
	salt, nonce, ciphertext := data[:saltSize], data[saltSize:saltSize+nonceSize], data[saltSize+nonceSize:]

	aead, err := newAEAD(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
