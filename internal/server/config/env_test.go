package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := lookupEnv
	t.Cleanup(func() { lookupEnv = orig })
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	stubEnv(t, map[string]string{
		"ZKVAULT_HTTP_ADDR":           ":7000",
		"ZKVAULT_MASTER_KEY":          "k",
		"ZKVAULT_DELETE_GRACE":        "1s",
		"ZKVAULT_CONCEAL_MISSING":     "true",
		"ZKVAULT_MAX_FILE_COUNT":      "7",
		"MAX_FILE_COUNT":              "2",
		"MAX_CONTENT_LENGTH_MB":       "100",
		"ZKVAULT_VERIFY_UPLOAD_PROOF": "false",
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "k", cfg.MasterKey)
	assert.Equal(t, time.Second, cfg.DeleteGrace)
	assert.True(t, cfg.ConcealMissing)
	assert.False(t, cfg.VerifyUploadProof)
	assert.Equal(t, int64(100), cfg.MaxContentLengthMB)
	assert.Equal(t, 7, cfg.MaxFileCount, "prefixed name wins over the legacy one")
}

func Test_parseEnv_BadValuePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	for _, env := range []map[string]string{
		{"ZKVAULT_DELETE_GRACE": "soon"},
		{"ZKVAULT_CONCEAL_MISSING": "maybe"},
		{"MAX_CONTENT_LENGTH_MB": "lots"},
	} {
		stubEnv(t, env)
		require.Panics(t, func() { parseEnv(&Config{}) })
	}
}

func Test_loadDotEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ZKVAULT_TEST_DOTENV_SENTINEL=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ZKVAULT_TEST_DOTENV_SENTINEL") })

	os.Args = []string{"testbin", "-env", path}
	loadDotEnv()
	assert.Equal(t, "loaded", os.Getenv("ZKVAULT_TEST_DOTENV_SENTINEL"))

	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "missing.env")}
	assert.Panics(t, loadDotEnv)
}
