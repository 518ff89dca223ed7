package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-client/api/handlers"
	"github.com/feichai0017/document-client/api/routes"
	"github.com/feichai0017/document-client/config"
	"github.com/feichai0017/document-client/internal/service/document"
	"github.com/feichai0017/document-client/internal/service/identity"
	"github.com/feichai0017/document-client/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Get()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithOutputPaths(cfg.Log.OutputPaths),
	)
	if err != nil {
		return err
	}
	defer log.Sync()

	users, err := identity.GetStore(cfg, log)
	if err != nil {
		return err
	}
	defer users.Close()

	docService, err := document.GetService(cfg, users, log)
	if err != nil {
		return err
	}
	// push channels must not outlive the view
	defer docService.CleanupWebSockets()

	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, handlers.NewHandlers(docService, users, log), log, cfg.Server.AllowOrigins...)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("View API listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("apiUrl", cfg.API.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("Server error", logger.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down view API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		return err
	}
	return nil
}
