package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/auth"
)

var errNoAdminSecret = fmt.Errorf("%w: admin secret is not configured (ZKVAULT_ADMIN_SECRET)", common.ErrValidation)

func (a *App) adminToken(subject string, ttl time.Duration) (string, error) {
	if a.config.AdminSecret == "" {
		return "", errNoAdminSecret
	}
	return auth.GenerateToken(subject, []byte(a.config.AdminSecret), ttl)
}

func (a *App) withAdmin(fn func(adminAPI) error) (err error) {
	token, err := a.adminToken("zkvault-cli", adminTokenTTL)
	if err != nil {
		return err
	}
	c, err := a.newAdmin(a.config, token)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, c.Close()) }()
	return fn(c)
}

func (a *App) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands for the ops listener",
	}

	var (
		subject string
		ttl     time.Duration
	)
	token := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token for external schedulers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.adminToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, t)
			return nil
		},
	}
	token.Flags().StringVar(&subject, "subject", "ops", "token subject")
	token.Flags().DurationVar(&ttl, "ttl", time.Hour, "token validity")

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Remove every expired object now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(func(c adminAPI) error {
				n, err := c.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				a.success("Swept %d expired object(s)", n)
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show deletions waiting to run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAdmin(func(c adminAPI) error {
				n, err := c.PendingDeletions(cmd.Context())
				if err != nil {
					return err
				}
				a.success("%d deletion(s) pending", n)
				return nil
			})
		},
	}

	cmd.AddCommand(token, sweep, status)
	return cmd
}
