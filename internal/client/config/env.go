package config

import (
	"fmt"
	"os"
	"time"
)

var lookupEnv = os.LookupEnv

// parseEnv reads ZKVAULT_* variables. Unset variables change nothing.
func parseEnv(cfg *Config) error {
	strs := map[string]*string{
		"ZKVAULT_SERVER_URL":       &cfg.ServerURL,
		"ZKVAULT_ADMIN_ADDR":       &cfg.AdminAddr,
		"ZKVAULT_ADMIN_SECRET":     &cfg.AdminSecret,
		"ZKVAULT_ARTIFACTS_DIR":    &cfg.ArtifactsDir,
		"ZKVAULT_NODE_BIN":         &cfg.NodeBin,
		"ZKVAULT_SNARKJS_BIN":      &cfg.SnarkJSBin,
		"ZKVAULT_NODE_MODULES_DIR": &cfg.NodeModulesDir,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}

	durs := map[string]*time.Duration{
		"ZKVAULT_REQUEST_TIMEOUT": &cfg.RequestTimeout,
		"ZKVAULT_PROVE_TIMEOUT":   &cfg.ProveTimeout,
	}
	for name, dst := range durs {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}
	return nil
}
