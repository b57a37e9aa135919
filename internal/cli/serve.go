package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voidtab/voidtab/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the start page API",
		Long:  `Starts the HTTP API, the settings watcher and, when a sync provider is configured, the periodic sync loop. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					app.Log.Warn().Err(closeErr).Msg("failed to close storage")
				}
			}()

			app.Settings.Watch()

			profile := app.Store.Profile()
			if profile.Enabled {
				app.Store.StartSync()
			}

			srv := server.New(app.Store, app.Settings.Get().Server, app.Log)
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("serve failed: %w", err)
			}
			return nil
		},
	}
}
