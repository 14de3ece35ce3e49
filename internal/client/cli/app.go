package cli

import (
	"bufio"
	"context"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/config"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

// adminTokenTTL is the validity of tokens minted for a single admin call.
const adminTokenTTL = 5 * time.Minute

type vaultAPI interface {
	Upload(ctx context.Context, r *client.UploadRequest) (string, error)
	Download(ctx context.Context, b *zk.Bundle) ([]byte, error)
	Poseidon(ctx context.Context, secret []byte) (string, error)
}

type adminAPI interface {
	Sweep(ctx context.Context) (int, error)
	PendingDeletions(ctx context.Context) (int, error)
	Close() error
}

type prover interface {
	Prove(ctx context.Context, secret *big.Int) (*zk.Bundle, error)
	Commit(ctx context.Context, secret *big.Int) (string, error)
}

// App carries what every command needs. The constructor fields are
// replaced in tests.
type App struct {
	config *config.Config
	logger logging.Logger

	in     *bufio.Reader
	stdin  *os.File
	out    io.Writer
	errOut io.Writer

	newVault  func(*config.Config) vaultAPI
	newProver func(*config.Config) prover
	newAdmin  func(cfg *config.Config, token string) (adminAPI, error)
}

func NewApp() *App {
	return &App{
		logger: logging.Nop{},
		in:     bufio.NewReader(os.Stdin),
		stdin:  os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		newVault: func(c *config.Config) vaultAPI {
			return client.NewVaultClient(c.ServerURL, c.RequestTimeout)
		},
		newProver: func(c *config.Config) prover {
			return &zk.SnarkJS{
				NodeBin:        c.NodeBin,
				SnarkJSBin:     c.SnarkJSBin,
				NodeModulesDir: c.NodeModulesDir,
				ArtifactsDir:   c.ArtifactsDir,
				Timeout:        c.ProveTimeout,
			}
		},
		newAdmin: func(c *config.Config, token string) (adminAPI, error) {
			return client.NewAdminClient(c.AdminAddr, token)
		},
	}
}

// Run executes the command line in args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	if err := root.ExecuteContext(ctx); err != nil {
		a.fail(err)
		return 1
	}
	return 0
}
