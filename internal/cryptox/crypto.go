// Package cryptox is the encryption service: AES-256-GCM sealing of object
// payloads and envelope wrapping of per-object key material under a
// process-wide master key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	// KeyMaterialSize is len(nonce || key).
	KeyMaterialSize = NonceSize + KeySize
)

// Sealed is the output of Encrypt. Ciphertext carries the GCM tag.
type Sealed struct {
	Ciphertext []byte
	Nonce      []byte
	Key        []byte
}

// KeyMaterial returns nonce || key, the record wrapped under the master key.
func (s *Sealed) KeyMaterial() []byte {
	out := make([]byte, 0, KeyMaterialSize)
	out = append(out, s.Nonce...)
	return append(out, s.Key...)
}

// Wipe zeroes the key and nonce.
func (s *Sealed) Wipe() {
	common.WipeByteArray(s.Key)
	common.WipeByteArray(s.Nonce)
}

// SplitKeyMaterial is the inverse of (*Sealed).KeyMaterial.
func SplitKeyMaterial(b []byte) (nonce, key []byte, err error) {
	if len(b) != KeyMaterialSize {
		return nil, nil, fmt.Errorf("%w: key material is %d bytes, want %d", common.ErrAuthenticationFailure, len(b), KeyMaterialSize)
	}
	return b[:NonceSize], b[NonceSize:], nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under a fresh random 256-bit key and 96-bit nonce.
// aad is authenticated but not encrypted; pass the object id to bind the
// ciphertext to its address.
func Encrypt(plaintext, aad []byte) (*Sealed, error) {
	key := common.GenerateRandByteArray(KeySize)
	nonce := common.GenerateRandByteArray(NonceSize)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return &Sealed{
		Ciphertext: aead.Seal(nil, nonce, plaintext, aad),
		Nonce:      nonce,
		Key:        key,
	}, nil
}

// Decrypt opens ciphertext. Any tag mismatch (tampering, wrong key, nonce or
// aad) yields ErrAuthenticationFailure and no plaintext.
func Decrypt(ciphertext, key, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce is %d bytes", common.ErrAuthenticationFailure, len(nonce))
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthenticationFailure, err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, common.ErrAuthenticationFailure
	}
	return plaintext, nil
}

// SealPrefixed encrypts plaintext under key and returns nonce || ciphertext.
// This is the client-side payload format: the key never leaves the client.
func SealPrefixed(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(NonceSize)
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenPrefixed reverses SealPrefixed.
func OpenPrefixed(key, data []byte) ([]byte, error) {
	if len(data) < NonceSize+TagSize {
		return nil, fmt.Errorf("%w: payload too short", common.ErrAuthenticationFailure)
	}
	return Decrypt(data[NonceSize:], key, data[:NonceSize], nil)
}
