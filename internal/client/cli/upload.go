package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/envelope"
)

func (a *App) uploadCommand() *cobra.Command {
	var (
		expireHours int
		once        bool
	)

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Encrypt files locally and store them in the vault",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			secret, err := envelope.NewComposite()
			if err != nil {
				return err
			}
			defer secret.Wipe()

			payload, err := secret.Seal(args)
			if err != nil {
				return err
			}
			a.logger.Debug(ctx, "payload sealed", "files", len(args), "bytes", len(payload))

			stop := startSpinner(a.errOut, "Generating proof...")
			bundle, err := a.newProver(a.config).Prove(ctx, secret.Secret)
			stop()
			if err != nil {
				return fmt.Errorf("prove: %w", err)
			}

			stop = startSpinner(a.errOut, "Uploading...")
			id, err := a.newVault(a.config).Upload(ctx, &client.UploadRequest{
				Payload:             payload,
				Proof:               bundle,
				ExpireHours:         expireHours,
				DeleteAfterDownload: once,
			})
			stop()
			if err != nil {
				return err
			}

			a.success("Stored %d file(s) as %s", len(args), color.CyanString(id))
			fmt.Fprintln(a.out, "Secret (keep it, it cannot be recovered):")
			fmt.Fprintln(a.out, color.YellowString(secret.String()))
			return nil
		},
	}

	cmd.Flags().IntVar(&expireHours, "expire-hours", 24, "hours until the object expires")
	cmd.Flags().BoolVar(&once, "delete-after-download", false, "delete the object after the first download")
	return cmd
}
