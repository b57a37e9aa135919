package store

import (
	"context"
	"fmt"

	"github.com/voidtab/voidtab/internal/cloudsync"
	"github.com/voidtab/voidtab/internal/config"
)

// StartSync starts the periodic reconciliation loop.
func (s *Store) StartSync() {
	s.scheduler.Start()
}

// StopSync stops the loop and cancels any in-flight transfer.
func (s *Store) StopSync() {
	s.scheduler.Stop()
}

// SyncNow runs one reconciliation pass immediately, even when autoSync
// is off. No-op while the scheduler is stopped.
func (s *Store) SyncNow() {
	s.scheduler.TickNow()
}

// SyncRunning reports whether the reconciliation loop is active.
func (s *Store) SyncRunning() bool {
	return s.scheduler.Running()
}

// LastUploadedRevision exposes the scheduler watermark for status output.
func (s *Store) LastUploadedRevision() int64 {
	return s.scheduler.LastUploadedRevision()
}

// TestSync checks connectivity with the current profile's provider.
func (s *Store) TestSync(ctx context.Context) cloudsync.Result {
	return s.service.Test(ctx, s.Profile())
}

// UpdateSyncProfile overlays a partial profile patch onto the current
// sync profile. It only changes the stored profile; StartSync and
// StopSync control the loop itself, as the HTTP profile handler does
// when the enabled state flips.
func (s *Store) UpdateSyncProfile(patch map[string]any) {
	s.mutate(func(doc *config.Document) {
		config.ApplyProfilePatch(&doc.Sync, patch)
	})
}

// ApplyRemotePayload replaces the local document with a downloaded one.
// The payload runs through the same migrate-and-normalize pipeline as a
// stored document, then the sync bookkeeping from meta is stamped on so
// the remote state is not re-detected as changed next tick.
func (s *Store) ApplyRemotePayload(ctx context.Context, remoteText string, meta cloudsync.Meta) error {
	doc := config.Parse([]byte(remoteText))
	if err := s.hydrateWallpaper(ctx, doc); err != nil {
		return fmt.Errorf("failed to apply remote document: %w", err)
	}

	s.mu.Lock()
	// The remote document carries the provider's own profile snapshot;
	// keep the local credentials and toggles authoritative.
	doc.Sync = s.doc.Sync
	doc.Sync.LastSyncTime = meta.LastSyncTime
	doc.Sync.LastRemoteEtag = meta.Etag
	doc.Sync.LastRemoteMtime = meta.Mtime
	s.doc = doc
	s.revision++
	s.mu.Unlock()

	s.persistAsync()
	s.notify()
	return nil
}

// RecordSyncMeta stamps sync bookkeeping after a successful upload. It
// deliberately does not bump the revision: a bump would mark the
// document dirty again and every upload would trigger the next.
func (s *Store) RecordSyncMeta(meta cloudsync.Meta) {
	s.mu.Lock()
	s.doc.Sync.LastSyncTime = meta.LastSyncTime
	s.doc.Sync.LastRemoteEtag = meta.Etag
	s.doc.Sync.LastRemoteMtime = meta.Mtime
	s.mu.Unlock()

	s.persistAsync()
}

// ReplaceDocument swaps in a full raw document, for imports and the PUT
// config endpoint. The input runs through the normalization pipeline, so
// malformed input degrades to defaults instead of failing.
func (s *Store) ReplaceDocument(raw []byte) {
	doc := config.Parse(raw)
	s.mu.Lock()
	s.doc = doc
	s.revision++
	s.mu.Unlock()

	s.persistAsync()
	s.notify()
}
