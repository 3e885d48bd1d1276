// Package crypt seals documents and filenames before they are hidden in a carrier.
//
// Encryption is deterministic: the nonce is a keyed hash of the plaintext (SIV construction), so sealing the
// same plaintext under the same shared secret always gives the same ciphertext. Frame markers rely on this.
package crypt

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha512"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	KeySize   = chacha20poly1305.KeySize
	NonceSize = chacha20poly1305.NonceSizeX
	TagSize   = chacha20poly1305.Overhead
	// Overhead is how many bytes Encrypt adds to a plaintext.
	Overhead = NonceSize + TagSize

	kdfSalt        = "cryptor/shared-secret/v1"
	kdfInfo        = "cryptor/xchacha20poly1305-siv"
	passphraseSalt = "cryptor/passphrase/v1"

	passphraseLanes = 4
)

var (
	ErrEmptySecret = errors.New("crypt: shared secret is empty")
	ErrShort       = errors.New("crypt: ciphertext is shorter than nonce and tag")
	ErrOpen        = errors.New("crypt: message authentication failed")
)

// Sealer encrypts and decrypts under the keys derived from one shared secret.
type Sealer struct {
	aead   cipher.AEAD
	macKey []byte
}

// New derives the encryption and nonce keys from secret with HKDF-SHA512.
func New(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	keys := make([]byte, 2*KeySize)
	kdf := hkdf.New(sha512.New, secret, []byte(kdfSalt), []byte(kdfInfo))
	if _, err := io.ReadFull(kdf, keys); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(keys[:KeySize])
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead, macKey: keys[KeySize:]}, nil
}

func (s *Sealer) nonceFor(plaintext []byte) []byte {
	mac := hmac.New(sha512.New, s.macKey)
	mac.Write(plaintext)
	return mac.Sum(nil)[:NonceSize]
}

// Encrypt returns nonce || ciphertext || tag.
func (s *Sealer) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := s.nonceFor(plaintext)
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	copy(out, nonce)
	return s.aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt reverses Encrypt. Any tampering or a different secret gives ErrOpen.
func (s *Sealer) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, ErrShort
	}

	nonce := ciphertext[:NonceSize]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext[NonceSize:], nil)
	if err != nil {
		return nil, ErrOpen
	}
	if !hmac.Equal(nonce, s.nonceFor(plaintext)) {
		return nil, ErrOpen
	}
	return plaintext, nil
}

// Encrypt seals plaintext under secret.
func Encrypt(plaintext, secret []byte) ([]byte, error) {
	s, err := New(secret)
	if err != nil {
		return nil, err
	}
	return s.Encrypt(plaintext)
}

// Decrypt opens ciphertext under secret.
func Decrypt(ciphertext, secret []byte) ([]byte, error) {
	s, err := New(secret)
	if err != nil {
		return nil, err
	}
	return s.Decrypt(ciphertext)
}

// StretchPassphrase turns a typed passphrase into a shared secret with argon2id.
// The salt is fixed so both sides of an exchange arrive at the same secret.
func StretchPassphrase(passphrase []byte) []byte {
	// the lane count is part of the key, so it must not follow the local CPU count
	return argon2.IDKey(passphrase, []byte(passphraseSalt), 3, 32*1024, passphraseLanes, KeySize)
}
