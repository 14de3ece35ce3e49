package cryptox

import "github.com/dmitrijs2005/zkvault/internal/common"

type cipherAEAD interface {
	NonceSize() int
	Overhead() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// Service seals object payloads at rest. Every object gets its own key and
// nonce; both are wrapped under the master key and bound to the object id.
type Service struct {
	keyring *Keyring
}

func NewService(k *Keyring) *Service {
	return &Service{keyring: k}
}

// Seal encrypts payload for object id and returns the ciphertext together with
// the wrapped key material.
func (s *Service) Seal(id string, payload []byte) (ciphertext, wrappedKey []byte, err error) {
	aad := []byte(id)

	sealed, err := Encrypt(payload, aad)
	if err != nil {
		return nil, nil, err
	}
	defer sealed.Wipe()

	raw := sealed.KeyMaterial()
	defer common.WipeByteArray(raw)

	wrappedKey, err = s.keyring.Wrap(raw, aad)
	if err != nil {
		return nil, nil, err
	}
	return sealed.Ciphertext, wrappedKey, nil
}

// Open unwraps the key material of object id and decrypts ciphertext.
func (s *Service) Open(id string, ciphertext, wrappedKey []byte) ([]byte, error) {
	aad := []byte(id)

	raw, err := s.keyring.Unwrap(wrappedKey, aad)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(raw)

	nonce, key, err := SplitKeyMaterial(raw)
	if err != nil {
		return nil, err
	}
	return Decrypt(ciphertext, key, nonce, aad)
}
