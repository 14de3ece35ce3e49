// Package storage is the object store: it maps an object id to its
// ciphertext and key-material artifacts over a swappable backend (local
// files, a bbolt database or an S3 bucket). Ids are never enumerable
// through this package.
package storage

import (
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/server/sanitize"
)

// Kind tags the artifacts stored per object. Expiry policy is not an
// artifact; it lives in the metadata database.
type Kind int

const (
	Ciphertext Kind = iota
	KeyMaterial
)

var kinds = []Kind{Ciphertext, KeyMaterial}

func (k Kind) String() string {
	switch k {
	case Ciphertext:
		return "ciphertext"
	case KeyMaterial:
		return "key_material"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Ext is the file extension used by the fs backend and as S3 key suffix.
func (k Kind) Ext() string {
	switch k {
	case Ciphertext:
		return ".ezra"
	case KeyMaterial:
		return ".ezrm"
	}
	return ".bin"
}

// PaddedSize is the size an artifact of kind with n framed bytes is padded
// to: ciphertexts go to their size bucket, key material to a fixed size.
func PaddedSize(k Kind, n int64) int64 {
	if k == KeyMaterial && n <= sanitize.KeyMaterialSize {
		return sanitize.KeyMaterialSize
	}
	return sanitize.BucketSize(n)
}

// padBytes pads an in-memory artifact for backends that cannot pad files.
func padBytes(k Kind, data []byte) []byte {
	return sanitize.PadBytes(data, PaddedSize(k, int64(len(data))))
}
