// Package config handles configuration for the vault server: defaults, JSON
// overlay, environment (.env aware) and command-line flags, applied in that
// order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
)

const (
	BackendFS   = "fs"
	BackendBolt = "bolt"
	BackendS3   = "s3"
)

// Config holds runtime settings for the vault server.
//
// MasterKey (or the file named by MasterKeyFile) must hold 32 bytes encoded
// as hex or base64. It wraps every per-object key, so losing it makes all
// stored objects unreadable.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	UploadDir   string
	DatabaseDSN string

	StorageBackend string
	BoltPath       string
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string

	MaxContentLengthMB int64
	MaxFileCount       int
	DefaultExpiration  time.Duration
	DeleteGrace        time.Duration
	SweepInterval      time.Duration

	MasterKey     string
	MasterKeyFile string

	ArtifactsDir               string
	NodeBin                    string
	SnarkJSBin                 string
	NodeModulesDir             string
	VerifierTimeout            time.Duration
	MaxConcurrentVerifications int
	VerifyUploadProof          bool
	ConcealMissing             bool

	AdminSecret   string
	AdminTokenTTL time.Duration

	LogLevel string
}

// LoadDefaults populates Config with development defaults. There is no
// default master key.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5001"
	c.GRPCAddr = ":50051"
	c.UploadDir = "uploads"
	c.DatabaseDSN = "data/expirations.db"

	c.StorageBackend = BackendFS
	c.BoltPath = "data/artifacts.bolt"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"

	c.MaxContentLengthMB = 275
	c.MaxFileCount = 5
	c.DefaultExpiration = 24 * time.Hour
	c.DeleteGrace = 2 * time.Minute
	c.SweepInterval = 10 * time.Minute

	c.ArtifactsDir = "artifacts"
	c.NodeBin = "node"
	c.SnarkJSBin = "snarkjs"
	c.NodeModulesDir = "node_modules"
	c.VerifierTimeout = 30 * time.Second
	c.MaxConcurrentVerifications = 8
	c.VerifyUploadProof = true
	c.ConcealMissing = false

	c.AdminTokenTTL = 15 * time.Minute
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, an optional JSON file, the
// environment and finally command-line flags. It panics on unreadable or
// malformed input; call Validate before use.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// MaxContentLength is the upload limit in bytes (1 MB = 1 000 000 bytes).
func (c *Config) MaxContentLength() int64 {
	return c.MaxContentLengthMB * common.BytesPerMB
}

// MasterKeyBytes resolves and decodes the master key. The inline value wins
// over the file.
func (c *Config) MasterKeyBytes() ([]byte, error) {
	material := c.MasterKey
	if material == "" && c.MasterKeyFile != "" {
		b, err := os.ReadFile(c.MasterKeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrMissingMasterKey, err)
		}
		material = string(b)
	}
	return cryptox.ParseMasterKey(material)
}

// Validate reports the first setting that would make the server unusable.
// A missing or malformed master key is reported here, before anything is
// opened.
func (c *Config) Validate() error {
	key, err := c.MasterKeyBytes()
	if err != nil {
		return err
	}
	common.WipeByteArray(key)

	switch {
	case c.HTTPAddr == "":
		return fmt.Errorf("%w: http_addr is empty", common.ErrValidation)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database_dsn is empty", common.ErrValidation)
	case c.MaxContentLengthMB <= 0:
		return fmt.Errorf("%w: max_content_length_mb must be positive", common.ErrValidation)
	case c.MaxFileCount <= 0:
		return fmt.Errorf("%w: max_file_count must be positive", common.ErrValidation)
	case c.DefaultExpiration <= 0:
		return fmt.Errorf("%w: default_expiration must be positive", common.ErrValidation)
	case c.DeleteGrace < 0:
		return fmt.Errorf("%w: delete_grace must not be negative", common.ErrValidation)
	case c.MaxConcurrentVerifications <= 0:
		return fmt.Errorf("%w: max_concurrent_verifications must be positive", common.ErrValidation)
	}

	switch strings.ToLower(c.StorageBackend) {
	case BackendFS:
		if c.UploadDir == "" {
			return fmt.Errorf("%w: upload_dir is empty", common.ErrValidation)
		}
	case BackendBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("%w: bolt_path is empty", common.ErrValidation)
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3_bucket is empty", common.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown storage_backend %q", common.ErrValidation, c.StorageBackend)
	}

	return nil
}
