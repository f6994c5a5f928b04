// Package main provides the gateway server entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sys3222/akshare-mcp-adapter/internal/api"
	"github.com/sys3222/akshare-mcp-adapter/internal/config"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("CRITICAL: load config: %v", err)
	}

	logger := logging.New("akshare-mcp-adapter", cfg.LogLevel, cfg.LogFormat)

	container, err := service.Build(cfg, logger)
	if err != nil {
		log.Fatalf("CRITICAL: build service container: %v", err)
	}
	defer func() {
		if closeErr := container.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("error during shutdown")
		}
	}()

	router := api.NewRouter(container)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("gateway starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("shutdown error")
	}
}
