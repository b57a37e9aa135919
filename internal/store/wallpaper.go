package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/voidtab/voidtab/internal/config"
	"github.com/voidtab/voidtab/internal/storage"
)

// hydrateWallpaper substitutes the stored blob back into a document that
// carries the local-storage marker. A missing blob falls back to the
// default wallpaper rather than a dangling marker.
func (s *Store) hydrateWallpaper(ctx context.Context, doc *config.Document) error {
	if doc.Theme.Wallpaper != config.LocalWallpaperMarker {
		return nil
	}
	blob, ok, err := s.kv.Get(ctx, config.WallpaperKey, storage.AreaLocal)
	if err != nil {
		return fmt.Errorf("failed to read wallpaper blob: %w", err)
	}
	if !ok {
		doc.Theme.Wallpaper = config.Default().Theme.Wallpaper
		return nil
	}
	doc.Theme.Wallpaper = string(blob)
	return nil
}

// extractWallpaper moves an embedded data:image wallpaper out of the
// document into the local area: the synced document must stay small
// because the sync area is subject to external quota limits.
func (s *Store) extractWallpaper(ctx context.Context, doc *config.Document) error {
	wallpaper := doc.Theme.Wallpaper

	if strings.HasPrefix(wallpaper, "data:image") {
		if err := s.kv.Set(ctx, config.WallpaperKey, []byte(wallpaper), storage.AreaLocal); err != nil {
			return fmt.Errorf("failed to store wallpaper blob: %w", err)
		}
		doc.Theme.Wallpaper = config.LocalWallpaperMarker
		return nil
	}

	// URL wallpaper: the stored blob is stale, clean it up.
	if wallpaper != config.LocalWallpaperMarker {
		if err := s.kv.Remove(ctx, config.WallpaperKey, storage.AreaLocal); err != nil {
			return fmt.Errorf("failed to remove stale wallpaper blob: %w", err)
		}
	}
	return nil
}

// stripWallpaper swaps an embedded wallpaper for the marker without
// touching storage; used for upload payloads.
func stripWallpaper(doc *config.Document) {
	if strings.HasPrefix(doc.Theme.Wallpaper, "data:image") {
		doc.Theme.Wallpaper = config.LocalWallpaperMarker
	}
}
