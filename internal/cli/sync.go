package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/voidtab/voidtab/internal/cli/model"
	"github.com/voidtab/voidtab/internal/cli/styles"
	"github.com/voidtab/voidtab/internal/cloudsync"
)

func newSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage cloud synchronization",
	}

	syncCmd.AddCommand(newSyncTestCmd())
	syncCmd.AddCommand(newSyncNowCmd())
	syncCmd.AddCommand(newSyncStatusCmd())
	syncCmd.AddCommand(newSyncWatchCmd())
	return syncCmd
}

func newSyncTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test connectivity with the configured sync provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck

			theme := styles.NewTheme()
			result := app.Store.TestSync(cmd.Context())
			if result.OK {
				fmt.Println(theme.SuccessStyle.Render("✓ " + result.Message))
				return nil
			}
			return fmt.Errorf("connection test failed: %s", result.Message)
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Run one reconciliation pass immediately",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck

			theme := styles.NewTheme()
			profile := app.Store.Profile()
			if !profile.Enabled || profile.Provider == cloudsync.ProviderNone {
				return fmt.Errorf("sync is not configured; set a provider first")
			}

			if push {
				registry := cloudsync.NewRegistry(cloudsync.NewHTTPTransport(nil))
				result := cloudsync.NewService(registry).Upload(cmd.Context(), profile, app.Store.UploadPayload())
				if !result.OK {
					return fmt.Errorf("upload failed: %s", result.Message)
				}
				fmt.Println(theme.SuccessStyle.Render("✓ uploaded local document"))
				return nil
			}

			// A fresh process has nothing dirty to upload; the reconcile
			// pass pulls remote changes detected against the stored
			// etag/mtime signals.
			app.Store.StartSync()
			app.Store.SyncNow()
			app.Store.StopSync()

			fmt.Println(theme.SuccessStyle.Render("✓ reconciliation pass complete"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "Force-upload the local document instead of reconciling")
	return cmd
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync profile and last sync time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck

			theme := styles.NewTheme()
			profile := app.Store.Profile()

			lastSync := "never"
			if profile.LastSyncTime > 0 {
				lastSync = time.UnixMilli(profile.LastSyncTime).Local().Format(time.RFC1123)
			}

			rows := [][2]string{
				{"Provider", string(profile.Provider)},
				{"Enabled", fmt.Sprintf("%t", profile.Enabled)},
				{"Auto sync", fmt.Sprintf("%t", profile.AutoSync)},
				{"Interval", fmt.Sprintf("%d min", profile.Interval())},
				{"Folder", profile.Folder},
				{"Filename", profile.Filename},
				{"Last sync", lastSync},
			}

			fmt.Println(theme.Title.Render("Sync status"))
			for _, row := range rows {
				fmt.Printf("  %s %s\n", theme.Subtle.Render(row[0]+":"), theme.Normal.Render(row[1]))
			}
			return nil
		},
	}
}

func newSyncWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the sync loop interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck

			app.Store.StartSync()
			defer app.Store.StopSync()

			m := model.NewSyncMonitor(app.Store, styles.NewTheme())
			_, err = tea.NewProgram(m).Run()
			return err
		},
	}
}
