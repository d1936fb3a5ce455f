package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/esscbee/hifi/internal/config"
	"github.com/esscbee/hifi/internal/logging"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the mixer's YAML configuration")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting mixer",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Float64("sample_rate", cfg.SampleRate),
		zap.Int("samples_per_frame", cfg.SamplesPerFrame),
	)

	server, err := NewServer(cfg, log)
	if err != nil {
		log.Fatal("failed to construct server", zap.Error(err))
	}
	if err := server.Start(context.Background()); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("received interrupt signal, shutting down")

	server.Stop()
}

// loadConfig falls back to Default() when the configured path is absent,
// matching spec.md §6's "absent key uses its default" rule applied to the
// whole file rather than just individual keys.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		d := config.Default()
		return &d, nil
	}
	return config.Load(path)
}
