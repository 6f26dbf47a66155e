// Package main provides the simgroup command line entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/simgroup/internal/config"
	"github.com/thebtf/simgroup/internal/runner"
	"github.com/thebtf/simgroup/pkg/models"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Config file (default ~/.simgroup/config.yaml)")
	root := flag.String("root", "", "Submissions root directory")
	threshold := flag.Float64("threshold", 0, "Minimum similarity in (0, 1]")
	mode := flag.String("mode", "", fmt.Sprintf("Clustering mode %v", models.AllModes))
	workers := flag.Int("workers", 0, "Concurrent scorers in exhaustive mode")
	format := flag.String("format", "", "Report format: text or json")
	out := flag.String("out", "", "Report file (default stdout)")
	watch := flag.Bool("watch", false, "Regenerate the report when files change")
	lenient := flag.Bool("lenient", false, "Treat unreadable files as empty")
	timeout := flag.Duration("timeout", 0, "Limit for one clustering pass")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Reports may go to stdout, so log to stderr
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Flags override the file and environment only when given
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			cfg.Root = *root
		case "threshold":
			cfg.Clustering.Threshold = *threshold
		case "mode":
			cfg.Clustering.Mode = models.Mode(*mode)
		case "workers":
			cfg.Clustering.Workers = *workers
		case "format":
			cfg.Format = *format
		case "out":
			cfg.Output = *out
		case "lenient":
			cfg.Lenient = *lenient
		case "timeout":
			cfg.Clustering.Timeout = *timeout
		}
	})

	r, err := runner.New(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	log.Debug().
		Str("version", Version).
		Str("root", cfg.Root).
		Str("mode", string(cfg.Clustering.Mode)).
		Float64("threshold", cfg.Clustering.Threshold).
		Msg("Starting simgroup")

	if *watch {
		if err := r.Watch(ctx, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("Watch failed")
		}
		return
	}

	if err := r.RunOnce(ctx, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Report failed")
	}
}
