package models

// EncryptedObject is what the object store keeps for one id: the server-side
// ciphertext and the wrapped nonce||key record that opens it.
type EncryptedObject struct {
	ID          string
	Ciphertext  []byte
	KeyMaterial []byte
}
