package cryptox

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// ParseMasterKey decodes hex or standard/URL base64 key material. The result
// must be exactly 32 bytes.
func ParseMasterKey(material string) ([]byte, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, common.ErrMissingMasterKey
	}

	decoders := []func(string) ([]byte, error){
		hex.DecodeString,
		base64.StdEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		base64.RawURLEncoding.DecodeString,
	}
	for _, decode := range decoders {
		if b, err := decode(material); err == nil {
			if len(b) != KeySize {
				common.WipeByteArray(b)
				return nil, fmt.Errorf("%w: got %d bytes", common.ErrInvalidMasterKeyLength, len(b))
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: master key is neither hex nor base64", common.ErrInvalidMasterKeyLength)
}

// Keyring holds the master key in a memguard enclave and wraps per-object key
// material with XChaCha20-Poly1305.
type Keyring struct {
	enclave *memguard.Enclave
}

// NewKeyring takes ownership of key: the slice is wiped once sealed into the
// enclave.
func NewKeyring(key []byte) (*Keyring, error) {
	if len(key) == 0 {
		return nil, common.ErrMissingMasterKey
	}
	if len(key) != KeySize {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("%w: got %d bytes", common.ErrInvalidMasterKeyLength, len(key))
	}
	return &Keyring{enclave: memguard.NewEnclave(key)}, nil
}

func (k *Keyring) withAEAD(fn func(aead cipherAEAD) error) error {
	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("open master key enclave: %w", err)
	}
	defer buf.Destroy()

	aead, err := chacha20poly1305.NewX(buf.Bytes())
	if err != nil {
		return err
	}
	return fn(aead)
}

// Wrap returns xnonce(24) || XChaCha20-Poly1305(raw) with aad authenticated.
func (k *Keyring) Wrap(raw, aad []byte) ([]byte, error) {
	var out []byte
	err := k.withAEAD(func(aead cipherAEAD) error {
		nonce := common.GenerateRandByteArray(aead.NonceSize())
		out = aead.Seal(nonce, nonce, raw, aad)
		return nil
	})
	return out, err
}

// Unwrap reverses Wrap. A wrong master key, wrong aad or tampered blob yields
// ErrAuthenticationFailure.
func (k *Keyring) Unwrap(wrapped, aad []byte) ([]byte, error) {
	var out []byte
	err := k.withAEAD(func(aead cipherAEAD) error {
		ns := aead.NonceSize()
		if len(wrapped) < ns+aead.Overhead() {
			return fmt.Errorf("%w: wrapped key material too short", common.ErrAuthenticationFailure)
		}
		raw, err := aead.Open(nil, wrapped[:ns], wrapped[ns:], aad)
		if err != nil {
			return common.ErrAuthenticationFailure
		}
		out = raw
		return nil
	})
	return out, err
}
