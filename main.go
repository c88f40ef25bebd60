package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"setsearch/internal/config"
	"setsearch/internal/index"
	"setsearch/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML or YAML config file")
	sourcePath := flag.String("source", "", "Document source to index under the name \"default\"")
	indexName := flag.String("index", "", "Index queried by the interactive shell (defaults to the first source)")
	listen := flag.String("listen", "", "Override the listen address (e.g. :8080)")
	serveHTTP := flag.Bool("serve", false, "Serve the HTTP API instead of the interactive shell")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.Getenv)
	if *sourcePath != "" {
		cfg.SetSource(config.DefaultSourceName, *sourcePath)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := index.NewRegistry(logger)
	if *serveHTTP {
		err = runServer(ctx, cfg, registry, logger)
	} else {
		tel := newTelemetry(ctx, logger, false)
		err = runShell(ctx, os.Stdin, os.Stdout, registry, shellSource(cfg, *indexName), tel)
	}
	if err != nil {
		logger.Error("setsearch stopped", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg config.AppConfig, registry *index.Registry, logger *slog.Logger) error {
	if len(cfg.Sources) == 0 {
		return errors.New("no document sources configured")
	}

	tel := newTelemetry(ctx, logger, cfg.MetricsEnabled())
	server := newAPIServer(registry, tel, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serve(gctx, cfg.Server.Listen, server.routes(cfg.RequestLogsEnabled()), cfg.Server.ShutdownTimeout, logger)
	})
	g.Go(func() error {
		for _, src := range cfg.Sources {
			if gctx.Err() != nil {
				return nil
			}
			stats, err := registry.Build(src.Name, src.Path)
			if err != nil {
				return fmt.Errorf("build index %q: %w", src.Name, err)
			}
			tel.recordBuild(gctx, stats)
		}
		server.markReady()
		logger.Info("sources indexed", "indexes", len(cfg.Sources))
		return nil
	})
	return g.Wait()
}

// shellSource picks the source named name, or the first configured source when
// name is empty. A zero SourceConfig makes the shell prompt for a path.
func shellSource(cfg config.AppConfig, name string) config.SourceConfig {
	for _, src := range cfg.Sources {
		if name == "" || src.Name == name {
			return src
		}
	}
	return config.SourceConfig{Name: name}
}
