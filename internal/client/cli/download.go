package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/zkvault/internal/client/envelope"
	"github.com/dmitrijs2005/zkvault/internal/filex"
)

func (a *App) downloadCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download [SECRET]",
		Short: "Fetch and decrypt the files stored under a secret",
		Long:  "Fetch and decrypt the files stored under a secret. The secret is read from the terminal when not given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			raw, err := a.readSecret(args)
			if err != nil {
				return err
			}
			secret, err := envelope.ParseComposite(raw)
			if err != nil {
				return err
			}
			defer secret.Wipe()

			stop := startSpinner(a.errOut, "Generating proof...")
			bundle, err := a.newProver(a.config).Prove(ctx, secret.Secret)
			stop()
			if err != nil {
				return fmt.Errorf("prove: %w", err)
			}

			stop = startSpinner(a.errOut, "Downloading...")
			payload, err := a.newVault(a.config).Download(ctx, bundle)
			stop()
			if err != nil {
				return err
			}

			dir, err := filex.EnsureDir(outDir)
			if err != nil {
				return err
			}
			files, err := secret.Open(payload, dir)
			if err != nil {
				return err
			}

			a.success("Retrieved %d file(s) into %s", len(files), dir)
			for _, f := range files {
				fmt.Fprintln(a.out, "  "+filepath.Base(f))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "downloads", "output directory")
	return cmd
}
