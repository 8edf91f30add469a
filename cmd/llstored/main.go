package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"llstore/internal/config"
	"llstore/internal/daemon"
	"llstore/internal/ipc"
	"llstore/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			logger.Error("another llstored instance already holds the lock")
			os.Exit(1)
		}
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	// Recovery runs inside Start, before any IPC request can be accepted.
	if err := d.Start(); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	socketPath := buildSocketPath(cfg)
	ipcServer, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	select {
	case <-ctx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("llstored shutting down")
}

func buildSocketPath(cfg *config.Config) string {
	if cfg.Paths.Socket != "" {
		return cfg.Paths.Socket
	}
	return filepath.Join(cfg.Paths.StateDir, "llstored.sock")
}
