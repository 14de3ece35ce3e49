package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/zkvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the current values alone.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	AdminAddr      *string         `json:"admin_addr"`
	AdminSecret    *string         `json:"admin_secret"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	ArtifactsDir   *string         `json:"artifacts_dir"`
	NodeBin        *string         `json:"node_bin"`
	SnarkJSBin     *string         `json:"snarkjs_bin"`
	NodeModulesDir *string         `json:"node_modules_dir"`
	ProveTimeout   *timex.Duration `json:"prove_timeout"`
}

// parseJson overlays cfg with the file at path. An empty path is a no-op.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.AdminAddr, jc.AdminAddr)
	setString(&cfg.AdminSecret, jc.AdminSecret)
	setString(&cfg.ArtifactsDir, jc.ArtifactsDir)
	setString(&cfg.NodeBin, jc.NodeBin)
	setString(&cfg.SnarkJSBin, jc.SnarkJSBin)
	setString(&cfg.NodeModulesDir, jc.NodeModulesDir)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ProveTimeout != nil {
		cfg.ProveTimeout = jc.ProveTimeout.Duration
	}
	return nil
}
