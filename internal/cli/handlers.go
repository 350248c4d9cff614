package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/BartekS5/metrics-etl/internal/config"
	"github.com/BartekS5/metrics-etl/internal/etl"
	"github.com/BartekS5/metrics-etl/internal/metric"
	"github.com/BartekS5/metrics-etl/internal/publish"
	"github.com/BartekS5/metrics-etl/internal/secrets"
	"github.com/BartekS5/metrics-etl/internal/storage"
	"github.com/BartekS5/metrics-etl/pkg/logger"
	"github.com/BartekS5/metrics-etl/pkg/telemetry"
	"github.com/spf13/cobra"
)

// openStore resolves the storage credential once and builds the store from it.
func openStore(ctx context.Context, cfg *config.Config, opts *GlobalOptions) (storage.Store, error) {
	var provider secrets.Provider = secrets.EnvProvider{}
	if opts.SecretsFile != "" {
		fp, err := secrets.NewFileProvider(opts.SecretsFile)
		if err != nil {
			return nil, err
		}
		provider = fp
	}

	connString, err := provider.GetSecret(cfg.SecretScope, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage credential: %w", err)
	}

	backend := cfg.StorageBackend
	if opts.Backend != "" {
		backend = opts.Backend
	}
	store, err := storage.Open(ctx, backend, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", backend, err)
	}
	logger.Debugf("Opened %s storage.", backend)
	return store, nil
}

func runMetric(ctx context.Context, opts *RunOptions) error {
	recipe, err := metric.Lookup(opts.Metric)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, opts.GlobalOptions)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	loc := etl.ConfigLocation{Container: opts.ConfigContainer, Path: opts.ConfigPath, File: opts.ConfigFile}
	pipeline := etl.NewPipeline(store, recipe, loc, opts.DryRun)

	gateway := opts.Pushgateway
	if gateway == "" {
		gateway = cfg.PushgatewayURL
	}
	if gateway != "" {
		rec, err := telemetry.NewPushRecorder(gateway, "metrics_etl", recipe.Name())
		if err != nil {
			return err
		}
		pipeline.Telemetry = rec
		defer func() {
			if ferr := rec.Flush(); ferr != nil {
				logger.Warnf("Failed to push telemetry: %v", ferr)
			}
		}()
	}

	if opts.PublishDriver != "" && !opts.DryRun {
		table := opts.PublishTable
		if table == "" {
			table = cfg.PublishTable
		}
		pub, err := publish.Open(ctx, opts.PublishDriver, cfg.PublishDSN, table)
		if err != nil {
			return fmt.Errorf("failed to open publisher: %w", err)
		}
		defer pub.Close()
		pipeline.Publisher = pub
	}

	if _, err := pipeline.Run(ctx); err != nil {
		logger.Errorf("Metric %s failed: %v", recipe.Name(), err)
		return err
	}
	return nil
}

func runLatest(c *cobra.Command, opts *LatestOptions) error {
	ctx := c.Context()
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg, opts.GlobalOptions)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	folder, err := storage.LatestFolder(ctx, store, opts.Container, opts.Prefix)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.OutOrStdout(), strings.TrimSpace(folder))
	return nil
}
