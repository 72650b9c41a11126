package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chazu/vesselkit/pkg/api"
	"github.com/chazu/vesselkit/pkg/session"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configurator HTTP API",
	Long: `Start the HTTP API used by the browser frontend. Each client creates a
session and drives it with spec edits, scripts and pointer events.

Examples:
  vesselctl serve
  vesselctl serve --addr 127.0.0.1:9000 --config vesselkit.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address; defaults to the config value")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	k, err := session.OpenKernel(cfg.Render.Kernel, cfg.Render.MeshCells, logger)
	if err != nil {
		return err
	}
	mgr := session.NewManager(sessionOptions())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, logger)
	api.RegisterRoutes(e, api.NewHandler(mgr, k, logger, cfg.Script.EngineOptions()...))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Drop idle sessions in the background.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mgr.CleanupOldSessions(session.SessionMaxAge)
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Str("kernel", k.Name()).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return e.Shutdown(shutdownCtx)
}
