package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/zkvault/internal/client/envelope"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

func (a *App) commitCommand() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "commit [SECRET]",
		Short: "Print the object id a secret maps to",
		Long: "Print the object id a secret maps to. By default the server computes it; " +
			"--local uses the local node toolchain so the secret never leaves the machine.",
		Args: cobra.MaximumNArgs(1),
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

			var id string
			if local {
				id, err = a.newProver(a.config).Commit(ctx, secret.Secret)
			} else {
				id, err = a.newVault(a.config).Poseidon(ctx, zk.SecretBytes(secret.Secret))
			}
			if err != nil {
				return err
			}

			a.success("Object id %s", color.CyanString(id))
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "compute the id locally")
	return cmd
}
