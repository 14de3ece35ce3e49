package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
	"github.com/dmitrijs2005/zkvault/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration fields
// accept "90s" style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr    string `json:"http_addr"`
	GRPCAddr    string `json:"grpc_addr"`
	UploadDir   string `json:"upload_dir"`
	DatabaseDSN string `json:"database_dsn"`

	StorageBackend string `json:"storage_backend"`
	BoltPath       string `json:"bolt_path"`
	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	MaxContentLengthMB int64          `json:"max_content_length_mb"`
	MaxFileCount       int            `json:"max_file_count"`
	DefaultExpiration  timex.Duration `json:"default_expiration"`
	DeleteGrace        timex.Duration `json:"delete_grace"`
	SweepInterval      timex.Duration `json:"sweep_interval"`

	MasterKey     string `json:"master_key"`
	MasterKeyFile string `json:"master_key_file"`

	ArtifactsDir               string         `json:"artifacts_dir"`
	NodeBin                    string         `json:"node_bin"`
	SnarkJSBin                 string         `json:"snarkjs_bin"`
	NodeModulesDir             string         `json:"node_modules_dir"`
	VerifierTimeout            timex.Duration `json:"verifier_timeout"`
	MaxConcurrentVerifications int            `json:"max_concurrent_verifications"`
	VerifyUploadProof          bool           `json:"verify_upload_proof"`
	ConcealMissing             bool           `json:"conceal_missing"`

	AdminSecret   string         `json:"admin_secret"`
	AdminTokenTTL timex.Duration `json:"admin_token_ttl"`

	LogLevel string `json:"log_level"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                   c.HTTPAddr,
		GRPCAddr:                   c.GRPCAddr,
		UploadDir:                  c.UploadDir,
		DatabaseDSN:                c.DatabaseDSN,
		StorageBackend:             c.StorageBackend,
		BoltPath:                   c.BoltPath,
		S3RootUser:                 c.S3RootUser,
		S3RootPassword:             c.S3RootPassword,
		S3Bucket:                   c.S3Bucket,
		S3Region:                   c.S3Region,
		S3BaseEndpoint:             c.S3BaseEndpoint,
		MaxContentLengthMB:         c.MaxContentLengthMB,
		MaxFileCount:               c.MaxFileCount,
		DefaultExpiration:          timex.Duration{Duration: c.DefaultExpiration},
		DeleteGrace:                timex.Duration{Duration: c.DeleteGrace},
		SweepInterval:              timex.Duration{Duration: c.SweepInterval},
		MasterKey:                  c.MasterKey,
		MasterKeyFile:              c.MasterKeyFile,
		ArtifactsDir:               c.ArtifactsDir,
		NodeBin:                    c.NodeBin,
		SnarkJSBin:                 c.SnarkJSBin,
		NodeModulesDir:             c.NodeModulesDir,
		VerifierTimeout:            timex.Duration{Duration: c.VerifierTimeout},
		MaxConcurrentVerifications: c.MaxConcurrentVerifications,
		VerifyUploadProof:          c.VerifyUploadProof,
		ConcealMissing:             c.ConcealMissing,
		AdminSecret:                c.AdminSecret,
		AdminTokenTTL:              timex.Duration{Duration: c.AdminTokenTTL},
		LogLevel:                   c.LogLevel,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.GRPCAddr = j.GRPCAddr
	c.UploadDir = j.UploadDir
	c.DatabaseDSN = j.DatabaseDSN
	c.StorageBackend = j.StorageBackend
	c.BoltPath = j.BoltPath
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.MaxContentLengthMB = j.MaxContentLengthMB
	c.MaxFileCount = j.MaxFileCount
	c.DefaultExpiration = j.DefaultExpiration.Duration
	c.DeleteGrace = j.DeleteGrace.Duration
	c.SweepInterval = j.SweepInterval.Duration
	c.MasterKey = j.MasterKey
	c.MasterKeyFile = j.MasterKeyFile
	c.ArtifactsDir = j.ArtifactsDir
	c.NodeBin = j.NodeBin
	c.SnarkJSBin = j.SnarkJSBin
	c.NodeModulesDir = j.NodeModulesDir
	c.VerifierTimeout = j.VerifierTimeout.Duration
	c.MaxConcurrentVerifications = j.MaxConcurrentVerifications
	c.VerifyUploadProof = j.VerifyUploadProof
	c.ConcealMissing = j.ConcealMissing
	c.AdminSecret = j.AdminSecret
	c.AdminTokenTTL = j.AdminTokenTTL.Duration
	c.LogLevel = j.LogLevel
}

// parseJson overlays the file named by -c/-config onto config. Keys absent
// from the file keep their current values. It panics if the file cannot be
// read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	c.apply(config)
}
