package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/zkvault/internal/client/config"
	"github.com/dmitrijs2005/zkvault/internal/logging"
)

// flagValues mirrors the persistent flags. Only flags set on the command
// line override the loaded configuration.
type flagValues struct {
	configPath     string
	verbose        bool
	serverURL      string
	adminAddr      string
	artifactsDir   string
	nodeBin        string
	snarkJSBin     string
	nodeModulesDir string
	proveTimeout   time.Duration
	requestTimeout time.Duration
}

func (a *App) rootCommand() *cobra.Command {
	var f flagValues

	root := &cobra.Command{
		Use:           "zkvault",
		Short:         "Store files that only the holder of a secret can fetch back",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd, &f)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, figure.NewFigure("zkvault", "", true).String())
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", os.Getenv("ZKVAULT_CONFIG"), "path to a JSON config file")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "write debug logs to stderr")
	pf.StringVar(&f.serverURL, "server", "", "vault base URL")
	pf.StringVar(&f.adminAddr, "admin-addr", "", "ops gRPC address")
	pf.StringVar(&f.artifactsDir, "artifacts-dir", "", "directory with the circuit wasm and zkey")
	pf.StringVar(&f.nodeBin, "node-bin", "", "node executable")
	pf.StringVar(&f.snarkJSBin, "snarkjs-bin", "", "snarkjs executable or cli.js")
	pf.StringVar(&f.nodeModulesDir, "node-modules", "", "node_modules holding circomlibjs")
	pf.DurationVar(&f.proveTimeout, "prove-timeout", 0, "limit for a single proof")
	pf.DurationVar(&f.requestTimeout, "timeout", 0, "limit for a single HTTP request")

	root.AddCommand(
		a.uploadCommand(),
		a.downloadCommand(),
		a.commitCommand(),
		a.adminCommand(),
	)
	return root
}

func (a *App) configure(cmd *cobra.Command, f *flagValues) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	str := map[string]struct {
		dst *string
		v   string
	}{
		"server":        {&cfg.ServerURL, f.serverURL},
		"admin-addr":    {&cfg.AdminAddr, f.adminAddr},
		"artifacts-dir": {&cfg.ArtifactsDir, f.artifactsDir},
		"node-bin":      {&cfg.NodeBin, f.nodeBin},
		"snarkjs-bin":   {&cfg.SnarkJSBin, f.snarkJSBin},
		"node-modules":  {&cfg.NodeModulesDir, f.nodeModulesDir},
	}
	for name, s := range str {
		if fs.Changed(name) {
			*s.dst = s.v
		}
	}
	if fs.Changed("prove-timeout") {
		cfg.ProveTimeout = f.proveTimeout
	}
	if fs.Changed("timeout") {
		cfg.RequestTimeout = f.requestTimeout
	}
	a.config = cfg

	if f.verbose {
		l, err := logging.NewJSON(a.errOut, "debug")
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		a.logger = l
	}
	a.logger.Debug(cmd.Context(), "config loaded", "server", cfg.ServerURL, "artifacts_dir", cfg.ArtifactsDir)
	return nil
}
