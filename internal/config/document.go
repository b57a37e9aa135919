// Package config defines the persisted start-page document and the
// migrate/normalize pipeline that turns arbitrary stored or imported JSON
// into a structurally valid, self-consistent document.
package config

import "github.com/voidtab/voidtab/internal/cloudsync"

// CurrentVersion is the schema version written by this build. Older or
// missing versions are ratcheted forward by Migrate.
const CurrentVersion = 1

// IconType selects how a site tile is rendered.
type IconType string

const (
	IconAuto  IconType = "auto" // favicon lookup
	IconGlyph IconType = "icon" // named glyph from the icon set
	IconText  IconType = "text" // colored initials badge
)

// ColorMode is the light/dark appearance selection.
type ColorMode string

const (
	ModeDark  ColorMode = "dark"
	ModeLight ColorMode = "light"
)

// SidebarPosition places the group sidebar.
type SidebarPosition string

const (
	SidebarLeft  SidebarPosition = "left"
	SidebarRight SidebarPosition = "right"
)

// Theme is a flat record of display settings. There are no cross-field
// invariants beyond type correctness.
type Theme struct {
	Wallpaper string    `json:"wallpaper"`
	Mode      ColorMode `json:"mode"`

	Blur    float64 `json:"blur"`
	Opacity float64 `json:"opacity"`

	IconSize int `json:"iconSize"`
	Radius   int `json:"radius"`
	Gap      int `json:"gap"`

	ShowIconName  bool   `json:"showIconName"`
	IconTextSize  int    `json:"iconTextSize"`
	IconTextColor string `json:"iconTextColor"`

	GridMaxWidth int             `json:"gridMaxWidth"`
	SidebarPos   SidebarPosition `json:"sidebarPos"`
	ShowTime     bool            `json:"showTime"`

	// Visual-effect toggles.
	EnableAnimations bool `json:"enableAnimations"`
	DimWallpaper     bool `json:"dimWallpaper"`
}

// SearchEngine is one entry of the engine picker.
type SearchEngine struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
}

// WidgetItem is one configured widget panel. Config is an opaque blob for
// unknown widget ids; registry-known ids get their config shallow-merged
// with the registry default so new default keys survive old saved documents.
type WidgetItem struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Visible bool           `json:"visible"`
	Order   int            `json:"order"`
	ColSpan int            `json:"colSpan"`
	Config  map[string]any `json:"config"`
}

// SiteItem is one link tile inside a group.
type SiteItem struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	IconType  IconType `json:"iconType"`
	IconValue string   `json:"iconValue,omitempty"`
	BgColor   string   `json:"bgColor,omitempty"`

	// Legacy field kept verbatim for round-tripping old documents.
	Icon string `json:"icon,omitempty"`
}

// Group is an ordered collection of site tiles.
type Group struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Icon  string     `json:"icon"`
	Items []SiteItem `json:"items"`
}

// Document is the root persisted configuration. After Normalize every
// invariant holds: search engines non-empty, CurrentEngineID valid, every
// registry widget present, every text-mode tile carrying a non-placeholder
// color and a 1-4 character initial.
type Document struct {
	Version         int               `json:"version"`
	Theme           Theme             `json:"theme"`
	SearchEngines   []SearchEngine    `json:"searchEngines"`
	CurrentEngineID string            `json:"currentEngineId"`
	Widgets         []WidgetItem      `json:"widgets"`
	Layout          []Group           `json:"layout"`
	Sync            cloudsync.Profile `json:"sync"`
}
