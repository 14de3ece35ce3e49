// Package httpapi exposes the vault over HTTP: /upload, /download and the
// /poseidon commitment helper.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
	"github.com/dmitrijs2005/zkvault/internal/zk"
)

type vault interface {
	Upload(ctx context.Context, req *services.UploadRequest) (string, error)
	Download(ctx context.Context, b *zk.Bundle) (*services.Download, error)
	Commit(ctx context.Context, secret []byte) (string, error)
}

type Options struct {
	// MaxContentLengthMB limits the whole upload request body.
	MaxContentLengthMB int64
	// ConcealMissing answers a missing object like a rejected proof.
	ConcealMissing bool
}

const (
	// maxJSONBody bounds /download and /poseidon request bodies.
	maxJSONBody = 1 << 20
	// maxMultipartMemory is kept in memory before multipart parts spill to
	// temporary files.
	maxMultipartMemory = 32 << 20

	shutdownTimeout = 30 * time.Second
)

type Server struct {
	address string
	vault   vault
	opts    Options
	logger  logging.Logger
}

func NewServer(address string, v vault, opts Options, l logging.Logger) *Server {
	return &Server{
		address: address,
		vault:   v,
		opts:    opts,
		logger:  l.With("module", "http_server"),
	}
}

// Handler returns the routed handler with request ids and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /download", s.handleDownload)
	mux.HandleFunc("POST /poseidon", s.handlePoseidon)
	return s.withRequestLog(mux)
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
