// Package cli provides the command-line interface for voidtab.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/voidtab/voidtab/internal/cloudsync"
	"github.com/voidtab/voidtab/internal/logging"
	"github.com/voidtab/voidtab/internal/settings"
	"github.com/voidtab/voidtab/internal/storage"
	"github.com/voidtab/voidtab/internal/store"
)

// App holds the wired application for CLI commands: settings, storage,
// the document store and the sync service.
type App struct {
	Settings *settings.Manager
	KV       storage.KV
	Store    *store.Store
	Log      zerolog.Logger
}

// NewApp loads settings, opens the storage backend and wires the store.
// The document is loaded and external-change watching is active when it
// returns.
func NewApp(ctx context.Context) (*App, error) {
	manager, err := settings.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}
	if err := manager.Load(); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	cfg := manager.Get()

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.Format != "" {
		logCfg.Format = cfg.Logging.Format
	}
	if stateDir, err := settings.GetStateDir(); err == nil {
		logCfg.FileDir = stateDir
	}
	log := logging.New(logCfg)
	ctx = logging.WithContext(ctx, log)

	kv, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	registry := cloudsync.NewRegistry(cloudsync.NewHTTPTransport(nil))
	service := cloudsync.NewService(registry)

	st := store.New(kv, service, log)
	if err := st.Load(ctx); err != nil {
		_ = kv.Close()
		return nil, err
	}
	if err := st.WatchExternalChanges(); err != nil {
		log.Warn().Err(err).Msg("external change watching unavailable")
	}

	return &App{
		Settings: manager,
		KV:       kv,
		Store:    st,
		Log:      log,
	}, nil
}

// Close releases the store subscription and the storage backend.
func (a *App) Close() error {
	a.Store.Close()
	return a.KV.Close()
}

// NewRootCmd creates the root command for voidtab.
func NewRootCmd(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voidtab",
		Short: "A self-hosted browser start page with cross-device sync",
		Long:  `voidtab serves a configurable start page document and keeps it in sync across devices through a WebDAV store.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("voidtab %s\n", version)
			fmt.Printf("commit: %s\n", commit)
			fmt.Printf("built: %s\n", buildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// Execute runs the root command and exits non-zero on error.
func Execute(version, commit, buildDate string) {
	if err := NewRootCmd(version, commit, buildDate).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
