// Package server wires the vault together: configuration, metadata store,
// artifact backend, key ring, proof gateway and lifecycle, then runs the
// HTTP API, the gRPC ops listener and the periodic sweeper until a signal
// arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/config"
	"github.com/dmitrijs2005/zkvault/internal/server/httpapi"
	"github.com/dmitrijs2005/zkvault/internal/server/lifecycle"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
	"github.com/dmitrijs2005/zkvault/internal/server/storage"
	"github.com/dmitrijs2005/zkvault/internal/zk"

	gs "github.com/dmitrijs2005/zkvault/internal/server/grpc"
)

// drainTimeout bounds how long pending consume-once deletions may take at
// shutdown.
const drainTimeout = 30 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	store     *storage.Store
	lifecycle *lifecycle.Manager
	vault     *services.VaultService
}

// NewApp validates c and opens everything the server needs. A missing or
// malformed master key fails here, before any listener starts.
func NewApp(ctx context.Context, c *config.Config) (app *App, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.NewJSON(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	key, err := c.MasterKeyBytes()
	if err != nil {
		return nil, err
	}
	keyring, err := cryptox.NewKeyring(key)
	if err != nil {
		return nil, err
	}

	db, target, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	rm, err := repomanager.NewRepositoryManager(target.Dialect)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	backend, err := storage.OpenBackend(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	store := storage.NewStore(backend, logger)

	snark := &zk.SnarkJS{
		NodeBin:        c.NodeBin,
		SnarkJSBin:     c.SnarkJSBin,
		NodeModulesDir: c.NodeModulesDir,
		ArtifactsDir:   c.ArtifactsDir,
		Timeout:        c.VerifierTimeout,
	}
	if _, err := os.Stat(filepath.Join(c.ArtifactsDir, zk.VerificationKeyFile)); err != nil {
		logger.Warn(ctx, "verification key not found, every download will fail", "artifacts_dir", c.ArtifactsDir)
	}
	gateway := zk.NewGateway(snark, snark, int64(c.MaxConcurrentVerifications), logger)

	lc := lifecycle.NewManager(rm.Expirations(db), store, lifecycle.Options{
		DefaultTTL:  c.DefaultExpiration,
		DeleteGrace: c.DeleteGrace,
	}, logger)

	vault := services.NewVaultService(gateway, cryptox.NewService(keyring), store, lc, services.VaultOptions{
		MaxContentLength:  c.MaxContentLength(),
		MaxFileCount:      c.MaxFileCount,
		VerifyUploadProof: c.VerifyUploadProof,
	}, logger)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		store:     store,
		lifecycle: lc,
		vault:     vault,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddr, app.vault, httpapi.Options{
		MaxContentLengthMB: app.config.MaxContentLengthMB,
		ConcealMissing:     app.config.ConcealMissing,
	}, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.GRPCAddr == "" {
		return
	}
	if app.config.AdminSecret == "" {
		app.logger.Warn(ctx, "admin_secret is empty, admin calls will be refused")
	}

	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.lifecycle, app.db.PingContext, app.config.AdminSecret)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// drains pending deletions and closes the stores.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		lifecycle.RunSweeper(ctx, app.lifecycle, app.config.SweepInterval, app.logger)
	}()

	wg.Wait()

	return app.shutdown()
}

func (app *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	app.logger.Info(ctx, "Stopping app...", "pending_deletions", app.lifecycle.PendingDeletions())

	var errs []error
	if err := app.lifecycle.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain deletions: %w", err))
	}
	if err := app.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	if err := app.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close db: %w", err))
	}
	return errors.Join(errs...)
}
