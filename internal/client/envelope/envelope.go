// Package envelope implements the client half of the vault protocol: files
// are zipped and sealed under a fresh key before they leave the machine,
// and the secret that proves ownership travels together with that key as
// one composite token.
package envelope

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

// KeySize is the length of the client-side payload key.
const KeySize = 32

// CompositeSize is the decoded length of a composite secret.
const CompositeSize = zk.SecretSize + KeySize

// ErrBadComposite reports a composite secret that does not decode.
var ErrBadComposite = fmt.Errorf("%w: composite secret must be %d base64 bytes", common.ErrValidation, CompositeSize)

var randReader io.Reader = rand.Reader

// Composite is the secret the uploader keeps. Secret proves ownership of the
// object; Key decrypts it.
type Composite struct {
	Secret *big.Int
	Key    []byte
}

// NewComposite samples a secret below the field modulus and a payload key.
func NewComposite() (*Composite, error) {
	raw := make([]byte, CompositeSize)
	if _, err := io.ReadFull(randReader, raw); err != nil {
		return nil, fmt.Errorf("random: %w", err)
	}
	// 253 bits keeps the secret under r
	raw[0] &= 0x1f

	return &Composite{
		Secret: new(big.Int).SetBytes(raw[:zk.SecretSize]),
		Key:    raw[zk.SecretSize:],
	}, nil
}

// String encodes secret || key as standard base64.
func (c *Composite) String() string {
	buf := make([]byte, 0, CompositeSize)
	buf = append(buf, zk.SecretBytes(c.Secret)...)
	buf = append(buf, c.Key...)
	return base64.StdEncoding.EncodeToString(buf)
}

// Wipe zeroes the payload key.
func (c *Composite) Wipe() {
	common.WipeByteArray(c.Key)
}

// ParseComposite reverses Composite.String.
func ParseComposite(s string) (*Composite, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil || len(raw) != CompositeSize {
		return nil, ErrBadComposite
	}
	secret, err := zk.SecretFromBytes(raw[:zk.SecretSize])
	if err != nil {
		return nil, err
	}
	key := make([]byte, KeySize)
	copy(key, raw[zk.SecretSize:])
	return &Composite{Secret: secret, Key: key}, nil
}

// Seal zips the files at paths and encrypts the archive under c.Key. Only
// base names are kept in the archive.
func (c *Composite) Seal(paths []string) ([]byte, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files", common.ErrValidation)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate file name %q", common.ErrValidation, name)
		}
		seen[name] = true

		if err := addFile(zw, p, name); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return cryptox.SealPrefixed(c.Key, buf.Bytes())
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Open decrypts payload under c.Key and extracts the archive into dir.
// It returns the written file paths.
func (c *Composite) Open(payload []byte, dir string) ([]string, error) {
	archive, err := cryptox.OpenPrefixed(c.Key, payload)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("payload is not an archive: %w", err)
	}

	var written []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path, err := safeJoin(dir, f.Name)
		if err != nil {
			return written, err
		}
		if err := extract(f, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

var errUnsafePath = errors.New("archive entry escapes the output directory")

// safeJoin keeps archive entries inside dir.
func safeJoin(dir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, `\`) {
		return "", fmt.Errorf("%w: %q", errUnsafePath, name)
	}
	p := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errUnsafePath, name)
	}
	return p, nil
}

func extract(f *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
