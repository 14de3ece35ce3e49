package envelope

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNewComposite_SecretInField(t *testing.T) {
	orig := randReader
	randReader = bytes.NewReader(bytes.Repeat([]byte{0xff}, CompositeSize))
	t.Cleanup(func() { randReader = orig })

	c, err := NewComposite()
	require.NoError(t, err)
	assert.NoError(t, zk.ValidateSecret(c.Secret))
	assert.Len(t, c.Key, KeySize)
}

func TestNewComposite_RandomFailure(t *testing.T) {
	orig := randReader
	randReader = bytes.NewReader(nil)
	t.Cleanup(func() { randReader = orig })

	_, err := NewComposite()
	assert.Error(t, err)
}

func TestComposite_StringParse(t *testing.T) {
	c, err := NewComposite()
	require.NoError(t, err)

	got, err := ParseComposite(c.String())
	require.NoError(t, err)
	assert.Equal(t, 0, c.Secret.Cmp(got.Secret))
	assert.Equal(t, c.Key, got.Key)
}

func TestParseComposite_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not base64", "!!!", ErrBadComposite},
		{"short", "AAAA", ErrBadComposite},
		{"secret outside field", "//////////////////////////////////////////8AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA==", common.ErrInvalidSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseComposite(tt.in)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, errors.Is(err, common.ErrValidation))
		})
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	src := t.TempDir()
	a := writeFile(t, src, "a.txt", "alpha")
	b := writeFile(t, src, "b.bin", "bravo")

	c, err := NewComposite()
	require.NoError(t, err)

	payload, err := c.Seal([]string{a, b})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "alpha")

	out := t.TempDir()
	files, err := c.Open(payload, out)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(out, "a.txt"), filepath.Join(out, "b.bin")}, files)

	data, err := os.ReadFile(filepath.Join(out, "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(data))
}

func TestSeal_Errors(t *testing.T) {
	c, err := NewComposite()
	require.NoError(t, err)

	_, err = c.Seal(nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	dir1, dir2 := t.TempDir(), t.TempDir()
	_, err = c.Seal([]string{writeFile(t, dir1, "x", "1"), writeFile(t, dir2, "x", "2")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = c.Seal([]string{filepath.Join(dir1, "missing")})
	assert.Error(t, err)
}

func TestOpen_WrongKey(t *testing.T) {
	src := t.TempDir()
	c, _ := NewComposite()
	payload, err := c.Seal([]string{writeFile(t, src, "a", "alpha")})
	require.NoError(t, err)

	other, _ := NewComposite()
	_, err = other.Open(payload, t.TempDir())
	assert.ErrorIs(t, err, common.ErrAuthenticationFailure)
}

func TestOpen_RejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../evil")
	require.NoError(t, err)
	_, _ = w.Write([]byte("x"))
	require.NoError(t, zw.Close())

	c, _ := NewComposite()
	payload, err := cryptox.SealPrefixed(c.Key, buf.Bytes())
	require.NoError(t, err)

	root := t.TempDir()
	out := filepath.Join(root, "out")
	require.NoError(t, os.Mkdir(out, 0o700))

	_, err = c.Open(payload, out)
	assert.ErrorIs(t, err, errUnsafePath)
	_, statErr := os.Stat(filepath.Join(root, "evil"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpen_NotAnArchive(t *testing.T) {
	c, _ := NewComposite()
	payload, err := cryptox.SealPrefixed(c.Key, []byte("plain"))
	require.NoError(t, err)

	_, err = c.Open(payload, t.TempDir())
	assert.ErrorContains(t, err, "not an archive")
}
