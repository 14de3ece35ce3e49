package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
)

const envPrefix = "ZKVAULT_"

var lookupEnv = os.LookupEnv

type envVar struct {
	name string
	set  func(c *Config, v string) error
}

func envString(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error { *dst(c) = v; return nil }
}

func envInt(dst func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func envInt64(dst func(c *Config) *int64) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func envBool(dst func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func envDuration(dst func(c *Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envVars = []envVar{
	{"HTTP_ADDR", envString(func(c *Config) *string { return &c.HTTPAddr })},
	{"GRPC_ADDR", envString(func(c *Config) *string { return &c.GRPCAddr })},
	{"UPLOAD_DIR", envString(func(c *Config) *string { return &c.UploadDir })},
	{"DATABASE_DSN", envString(func(c *Config) *string { return &c.DatabaseDSN })},
	{"STORAGE_BACKEND", envString(func(c *Config) *string { return &c.StorageBackend })},
	{"BOLT_PATH", envString(func(c *Config) *string { return &c.BoltPath })},
	{"S3_ROOT_USER", envString(func(c *Config) *string { return &c.S3RootUser })},
	{"S3_ROOT_PASSWORD", envString(func(c *Config) *string { return &c.S3RootPassword })},
	{"S3_BUCKET", envString(func(c *Config) *string { return &c.S3Bucket })},
	{"S3_REGION", envString(func(c *Config) *string { return &c.S3Region })},
	{"S3_BASE_ENDPOINT", envString(func(c *Config) *string { return &c.S3BaseEndpoint })},
	{"MAX_CONTENT_LENGTH_MB", envInt64(func(c *Config) *int64 { return &c.MaxContentLengthMB })},
	{"MAX_FILE_COUNT", envInt(func(c *Config) *int { return &c.MaxFileCount })},
	{"DEFAULT_EXPIRATION", envDuration(func(c *Config) *time.Duration { return &c.DefaultExpiration })},
	{"DELETE_GRACE", envDuration(func(c *Config) *time.Duration { return &c.DeleteGrace })},
	{"SWEEP_INTERVAL", envDuration(func(c *Config) *time.Duration { return &c.SweepInterval })},
	{"MASTER_KEY", envString(func(c *Config) *string { return &c.MasterKey })},
	{"MASTER_KEY_FILE", envString(func(c *Config) *string { return &c.MasterKeyFile })},
	{"ARTIFACTS_DIR", envString(func(c *Config) *string { return &c.ArtifactsDir })},
	{"NODE_BIN", envString(func(c *Config) *string { return &c.NodeBin })},
	{"SNARKJS_BIN", envString(func(c *Config) *string { return &c.SnarkJSBin })},
	{"NODE_MODULES_DIR", envString(func(c *Config) *string { return &c.NodeModulesDir })},
	{"VERIFIER_TIMEOUT", envDuration(func(c *Config) *time.Duration { return &c.VerifierTimeout })},
	{"MAX_CONCURRENT_VERIFICATIONS", envInt(func(c *Config) *int { return &c.MaxConcurrentVerifications })},
	{"VERIFY_UPLOAD_PROOF", envBool(func(c *Config) *bool { return &c.VerifyUploadProof })},
	{"CONCEAL_MISSING", envBool(func(c *Config) *bool { return &c.ConcealMissing })},
	{"ADMIN_SECRET", envString(func(c *Config) *string { return &c.AdminSecret })},
	{"ADMIN_TOKEN_TTL", envDuration(func(c *Config) *time.Duration { return &c.AdminTokenTTL })},
	{"LOG_LEVEL", envString(func(c *Config) *string { return &c.LogLevel })},
}

// legacyEnvVars are the unprefixed names older deployments set.
var legacyEnvVars = []string{"MAX_CONTENT_LENGTH_MB", "MAX_FILE_COUNT"}

// loadDotEnv loads the file named by -env, or ./.env when present. Variables
// already in the environment are not overridden.
func loadDotEnv() {
	path := flagx.EnvFileFlag()
	if path == "" {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		panic(err)
	}
}

// parseEnv overlays the legacy unprefixed variables, then ZKVAULT_* ones.
// It panics on a value that does not parse.
func parseEnv(config *Config) {
	loadDotEnv()

	byName := make(map[string]envVar, len(envVars))
	for _, e := range envVars {
		byName[e.name] = e
	}

	for _, name := range legacyEnvVars {
		if v, ok := lookupEnv(name); ok {
			if err := byName[name].set(config, v); err != nil {
				panic(fmt.Errorf("%s: %w", name, err))
			}
		}
	}

	for _, e := range envVars {
		if v, ok := lookupEnv(envPrefix + e.name); ok {
			if err := e.set(config, v); err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, e.name, err))
			}
		}
	}
}
