package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telcokit/specsync/internal/api"
	"github.com/telcokit/specsync/internal/catalog"
	"github.com/telcokit/specsync/internal/config"
	"github.com/telcokit/specsync/internal/logging"
	"github.com/telcokit/specsync/internal/progress"
	"github.com/telcokit/specsync/internal/progress/sinks"
	"github.com/telcokit/specsync/internal/state"
	"github.com/telcokit/specsync/internal/syncer"
	"github.com/telcokit/specsync/internal/transport"
)

// newSyncCmd creates and configures the 'sync' subcommand.
func newSyncCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Discovers and downloads missing specification archives",
		Long: `Scans the configured series directories, diffs the discovered archives
against the progress record, and downloads whatever is missing. A run
interrupted by a signal leaves the record behind and resumes on the next
invocation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"report discovered and pending counts without downloading")
	return cmd
}

func runSync(parent context.Context, dryRun bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is harmless

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	hub := progress.NewHub(
		progress.Config{Logger: logger},
		sinks.NewLogSink(logger),
		promSink,
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("progress hub close failed", zap.Error(cerr))
		}
	}()

	if cfg.Metrics.Enabled {
		srv := api.NewServer(cfg.Metrics.Port, registry, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("metrics endpoint shutdown failed", zap.Error(serr))
			}
		}()
	}

	lister := catalog.NewListingFetcher(cfg.Remote.UserAgent, cfg.Timeout())
	builder := catalog.NewBuilder(lister, cfg.Remote.BaseURL, cfg.Sync.ContentRoot, logger)
	store := state.NewFileStore(cfg.Sync.StateFile)
	client := transport.NewClient(cfg.Remote.UserAgent, cfg.Timeout())

	engine := syncer.New(builder, store, client, hub, logger, syncer.Options{
		SeriesDirs:  cfg.Sync.SeriesDirs,
		ContentRoot: cfg.Sync.ContentRoot,
		Workers:     cfg.Sync.Workers,
		DryRun:      dryRun,
	})

	if err := engine.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("sync interrupted, progress record retained for resume")
			return nil
		}
		return fmt.Errorf("run sync: %w", err)
	}
	return nil
}
