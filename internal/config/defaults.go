package config

import "github.com/voidtab/voidtab/internal/cloudsync"

// Default appearance constants
const (
	defaultBlur         = 20
	defaultOpacity      = 0.3
	defaultIconSize     = 72 // px
	defaultRadius       = 24 // px
	defaultGap          = 32 // px
	defaultIconTextSize = 14 // px
	defaultGridMaxWidth = 1200
)

const defaultWallpaper = "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe?q=80&w=2564&auto=format&fit=crop"

// DefaultEngines returns the built-in search engines. The first entry is
// the fallback for dangling currentEngineId references.
func DefaultEngines() []SearchEngine {
	return []SearchEngine{
		{ID: "baidu", Name: "Baidu", URL: "https://www.baidu.com/s?wd=", Icon: "PawPrint"},
		{ID: "google", Name: "Google", URL: "https://www.google.com/search?q=", Icon: "GoogleLogo"},
		{ID: "bing", Name: "Bing", URL: "https://www.bing.com/search?q=", Icon: "MagnifyingGlass"},
	}
}

// Default returns the compiled-in default document. Callers receive a
// fresh value on every call; nothing here is shared.
func Default() *Document {
	return &Document{
		Version: CurrentVersion,
		Theme: Theme{
			Wallpaper: defaultWallpaper,
			Mode:      ModeDark,

			Blur:    defaultBlur,
			Opacity: defaultOpacity,

			IconSize: defaultIconSize,
			Radius:   defaultRadius,
			Gap:      defaultGap,

			ShowIconName:  true,
			IconTextSize:  defaultIconTextSize,
			IconTextColor: "#ffffff",

			GridMaxWidth: defaultGridMaxWidth,
			SidebarPos:   SidebarLeft,
			ShowTime:     true,

			EnableAnimations: true,
			DimWallpaper:     false,
		},
		SearchEngines:   DefaultEngines(),
		CurrentEngineID: "baidu",
		Widgets:         DefaultWidgets(),
		Layout: []Group{
			{
				ID:    "g-1",
				Title: "Getting started",
				Icon:  "Briefcase",
				Items: []SiteItem{
					{ID: "1", Title: "GitHub", URL: "https://github.com", IconType: IconGlyph, IconValue: "GithubLogo", BgColor: "#f97316"},
					{ID: "2", Title: "Google", URL: "https://google.com", IconType: IconGlyph, IconValue: "GoogleLogo", BgColor: "#10b981"},
				},
			},
		},
		Sync: cloudsync.Profile{
			Provider:        cloudsync.ProviderNone,
			Enabled:         false,
			AutoSync:        true,
			IntervalMinutes: cloudsync.DefaultIntervalMinutes,
			Folder:          "voidtab",
			Filename:        "voidtab-backup.json",
		},
	}
}
