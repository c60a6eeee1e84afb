package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/solardesk/shell/internal/infrastructure/config"
	"github.com/solardesk/shell/internal/infrastructure/logging"
	"github.com/solardesk/shell/internal/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	bundleDir := flag.String("bundles", "", "Bundle manifest directory (overrides BUNDLE_DIR)")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *bundleDir != "" {
		cfg.Bundles.Dir = *bundleDir
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("shutting down")
		if err := srv.Close(); err != nil {
			logger.Sugar().Errorf("error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
