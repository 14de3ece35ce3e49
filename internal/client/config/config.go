// Package config holds the settings of the zkvault command-line client:
// where the server is, where the proving artifacts live and how long the
// external tools may run.
package config

import (
	"time"
)

// Config holds runtime settings for the CLI.
//
// The prover fields must point at the same circuit artifacts the server
// verifies against, otherwise every proof is rejected.
type Config struct {
	ServerURL      string
	AdminAddr      string
	AdminSecret    string
	RequestTimeout time.Duration

	ArtifactsDir   string
	NodeBin        string
	SnarkJSBin     string
	NodeModulesDir string
	ProveTimeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5001"
	c.AdminAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Minute

	c.ArtifactsDir = "artifacts"
	c.NodeBin = "node"
	c.SnarkJSBin = "snarkjs"
	c.NodeModulesDir = "node_modules"
	c.ProveTimeout = 2 * time.Minute
}

// Load applies defaults, then the JSON file at jsonPath (if any), then the
// environment. Command-line flags are applied by the caller on top.
func Load(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
