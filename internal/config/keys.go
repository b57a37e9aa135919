package config

// Storage keys for the persisted document and its large companion blobs.
const (
	// DocumentKey holds the core document JSON in the "sync" storage
	// area. Synced payloads must stay small, so large blobs live under
	// separate local keys.
	DocumentKey = "voidtab-core-config"

	// WallpaperKey holds an embedded wallpaper image in the "local"
	// storage area when the user picked a data: URI wallpaper.
	WallpaperKey = "voidtab-wallpaper-blob"
)

// LocalWallpaperMarker replaces an embedded data:image wallpaper inside the
// document before save, keeping the synced document small. Load substitutes
// the stored blob back in.
const LocalWallpaperMarker = "_USE_LOCAL_STORAGE_"
