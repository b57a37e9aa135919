package cli

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/voidtab/voidtab/internal/cli/styles"
	"github.com/voidtab/voidtab/internal/config"
	"github.com/voidtab/voidtab/internal/settings"
	"github.com/voidtab/voidtab/internal/storage"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the start page document",
	}

	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigCheckCmd())
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print settings and data locations",
		RunE: func(_ *cobra.Command, _ []string) error {
			settingsFile, err := settings.GetSettingsFile()
			if err != nil {
				return err
			}
			dataDir, err := settings.GetDataDir()
			if err != nil {
				return err
			}
			stateDir, err := settings.GetStateDir()
			if err != nil {
				return err
			}

			theme := styles.NewTheme()
			fmt.Printf("%s %s\n", theme.Subtle.Render("Settings:"), settingsFile)
			fmt.Printf("%s %s\n", theme.Subtle.Render("Data:    "), dataDir)
			fmt.Printf("%s %s\n", theme.Subtle.Render("State:   "), stateDir)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the normalized document as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close() //nolint:errcheck

			data, err := json.MarshalIndent(app.Store.Document(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode document: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

// newConfigCheckCmd runs the stored document through the migration and
// normalization pipeline and reports which top-level sections it had to
// repair. The check never fails on content: any input yields a valid
// document.
func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the stored document and report repairs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := settings.NewManager()
			if err != nil {
				return err
			}
			if err := manager.Load(); err != nil {
				return err
			}
			kv, err := storage.New(cmd.Context(), manager.Get())
			if err != nil {
				return err
			}
			defer kv.Close() //nolint:errcheck

			theme := styles.NewTheme()

			raw, found, err := kv.Get(cmd.Context(), config.DocumentKey, storage.AreaSync)
			if err != nil {
				return err
			}
			if !found {
				fmt.Println(theme.WarningStyle.Render("no stored document; defaults will be used"))
				return nil
			}

			repaired := repairedSections(raw)
			if len(repaired) == 0 {
				fmt.Println(theme.SuccessStyle.Render("✓ document is already normalized"))
				return nil
			}

			fmt.Println(theme.WarningStyle.Render("document needed repairs:"))
			for _, section := range repaired {
				fmt.Printf("  %s %s\n", theme.Subtle.Render("•"), section)
			}
			return nil
		},
	}
}

// repairedSections diffs the stored JSON against its normalized form at
// the top level.
func repairedSections(raw []byte) []string {
	var stored map[string]json.RawMessage
	if err := json.Unmarshal(raw, &stored); err != nil {
		return []string{"document (not a JSON object)"}
	}

	normalized, err := json.Marshal(config.Parse(raw))
	if err != nil {
		return nil
	}
	var clean map[string]json.RawMessage
	if err := json.Unmarshal(normalized, &clean); err != nil {
		return nil
	}

	var sections []string
	for key, cleanVal := range clean {
		storedVal, ok := stored[key]
		if !ok {
			sections = append(sections, key+" (missing)")
			continue
		}
		if !jsonEqual(storedVal, cleanVal) {
			sections = append(sections, key)
		}
	}
	sort.Strings(sections)
	return sections
}

// jsonEqual compares two raw JSON values structurally, ignoring key order
// and whitespace.
func jsonEqual(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	ac, err := json.Marshal(canonicalize(av))
	if err != nil {
		return false
	}
	bc, err := json.Marshal(canonicalize(bv))
	if err != nil {
		return false
	}
	return string(ac) == string(bc)
}

// canonicalize sorts nothing itself; Go maps marshal with sorted keys, so
// re-marshalling decoded values already yields a canonical form. Slices
// recurse to canonicalize nested objects.
func canonicalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = canonicalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = canonicalize(vv)
		}
		return out
	default:
		return v
	}
}
