package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/deckhand-io/deckhand/pkg/config"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Deckhand service",
		Long: `Run the Deckhand service: connect configured docks, expose the
metrics endpoint, and keep provisioning sessions available until
interrupted.

When a config file is given, it is watched and hot-reloaded on change.`,
		Example: `  # Run with defaults (in-memory store, no docks)
  deckhand serve

  # Run with a config file
  deckhand serve --config /etc/deckhand/deckhand.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				rt.shutdown(shutdownCtx)
			}()

			logger := rt.tel.Logger.NewComponentLogger("serve")
			if rt.cfg.Telemetry.Metrics.Enabled {
				if err := rt.tel.Metrics.StartMetricsServer(); err != nil {
					return err
				}
				logger.Infof("metrics listening on %s", rt.cfg.Telemetry.Metrics.ListenAddr)
			}

			if configPath != "" {
				watcher := config.NewWatcher(configPath, log.Logger)
				err := watcher.Watch(ctx, func(cfg *config.Config) error {
					// Tunables only; docks and stores need a restart.
					rt.cfg.Dedupe = cfg.Dedupe
					rt.cfg.Provisioning = cfg.Provisioning
					return nil
				})
				if err != nil {
					return err
				}
				defer watcher.Stop()
			}

			// Prune settled sessions periodically.
			go func() {
				ticker := time.NewTicker(rt.cfg.Provisioning.SessionTTL)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if n := rt.manager.Prune(); n > 0 {
							logger.Infof("pruned %d settled sessions", n)
						}
					}
				}
			}()

			logger.Infof("deckhand ready: %d providers registered", len(rt.registry.Names()))
			<-ctx.Done()
			logger.Info("shutting down")
			return nil
		},
	}
	return cmd
}
