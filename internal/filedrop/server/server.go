package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"filedrop/pkg/config"
	"filedrop/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// Server runs the public and admin HTTP servers as one unit: both come up
// together and a shutdown signal stops both gracefully.
type Server struct {
	public *http.Server
	admin  *http.Server
	cfg    *config.Config
	logger *logger.Logger
}

func New(cfg *config.Config, publicHandler, adminHandler http.Handler) *Server {
	return &Server{
		public: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Public.Host, cfg.Public.Port),
			Handler:           publicHandler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		admin: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Admin.Host, cfg.Admin.Port),
			Handler:           adminHandler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg:    cfg,
		logger: logger.WithField("component", "server"),
	}
}

// Run serves until SIGINT/SIGTERM or the context ends, then drains both
// servers. A listener failure on either server brings the whole process
// down.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("public file server listening", "addr", s.public.Addr)
		if err := s.public.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("public server: %w", err)
		}
	}()
	go func() {
		s.logger.Info("admin API server listening", "addr", s.admin.Addr)
		if err := s.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("admin server: %w", err)
		}
	}()

	s.printBanner()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		s.logger.Error("server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.public.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("public server shutdown", "error", err)
	}
	if err := s.admin.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("admin server shutdown", "error", err)
	}

	s.logger.Info("servers stopped")
	return runErr
}

func (s *Server) printBanner() {
	s.logger.Info("filedrop ready")
	s.logger.Info(fmt.Sprintf("  public:   http://%s", s.public.Addr))
	s.logger.Info(fmt.Sprintf("  admin:    http://%s", s.admin.Addr))
	s.logger.Info(fmt.Sprintf("  files:    %s", s.cfg.Files.Dir))
}
