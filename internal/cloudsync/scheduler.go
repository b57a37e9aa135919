package cloudsync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Meta is the sync bookkeeping handed back to the owner after a
// successful reconciliation step.
type Meta struct {
	// LastSyncTime is unix milliseconds.
	LastSyncTime int64
	Etag         string
	Mtime        string
}

// Hooks threads the scheduler to its owner without a direct dependency on
// the document store. All getters must be cheap; OnRemotePayload is
// expected to migrate, normalize and replace the local document.
type Hooks struct {
	GetProfile       func() Profile
	GetUploadPayload func() string
	GetLocalRevision func() int64

	// OnRemotePayload receives the raw remote document text when the
	// remote store diverged; remote always wins wholesale.
	OnRemotePayload func(ctx context.Context, remoteText string, meta Meta) error

	// OnSyncMeta records timestamp and remote change signals after any
	// successful upload or remote apply. Optional.
	OnSyncMeta func(meta Meta)

	// OnError observes tick failures. Failures are never fatal to the
	// loop. Optional.
	OnError func(err error)
}

// Scheduler owns the periodic reconciliation loop. It keeps only
// ephemeral state (timer, last-uploaded revision); the revision counter
// itself is caller-owned and only ever read here.
type Scheduler struct {
	service Dispatcher
	hooks   Hooks
	log     zerolog.Logger

	mu      sync.Mutex
	running bool
	timer   *time.Timer
	cancel  context.CancelFunc
	ctx     context.Context

	lastUploadedRevision int64

	// tickMu serializes tick bodies: the timer only re-arms after the
	// current body completes, and a manual tick can never overlap a
	// scheduled one.
	tickMu sync.Mutex

	now func() time.Time
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(service Dispatcher, hooks Hooks, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		service: service,
		hooks:   hooks,
		log:     log.With().Str("component", "sync-scheduler").Logger(),
		now:     time.Now,
	}
}

// Start begins the reconciliation loop: it seeds the last-uploaded
// revision from the current local revision (so starting never triggers a
// spurious upload), runs one tick immediately, and schedules the next.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.lastUploadedRevision = s.hooks.GetLocalRevision()
	s.mu.Unlock()

	s.log.Debug().Int64("revision", s.lastUploadedRevision).Msg("sync scheduler started")
	go s.tick(false)
}

// Stop cancels the pending timer and any in-flight network call. It is
// idempotent; no new tick fires after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.log.Debug().Msg("sync scheduler stopped")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TickNow triggers one reconciliation immediately ("sync now"). It still
// respects the running state but ignores the profile's autoSync flag.
func (s *Scheduler) TickNow() {
	s.tick(true)
}

// LastUploadedRevision exposes the reconciliation watermark, mainly for
// status displays.
func (s *Scheduler) LastUploadedRevision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUploadedRevision
}

func (s *Scheduler) tick(manual bool) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	running := s.running
	ctx := s.ctx
	s.mu.Unlock()
	if !running {
		return
	}

	// Re-arm only after this body has fully completed, so ticks never
	// overlap even when the interval is shorter than a slow network call.
	defer s.scheduleNext()

	profile := s.hooks.GetProfile()
	if !profile.Enabled || profile.Provider == ProviderNone {
		return
	}
	// autoSync=false keeps the scheduler alive but only manual ticks
	// actually reconcile.
	if !profile.AutoSync && !manual {
		return
	}

	if err := s.reconcile(ctx, profile); err != nil {
		s.log.Warn().Err(err).Msg("sync tick failed")
		if s.hooks.OnError != nil {
			s.hooks.OnError(err)
		}
	}
}

// reconcile is one download-first reconciliation pass: remote divergence
// wins wholesale; otherwise local edits past the watermark are uploaded.
func (s *Scheduler) reconcile(ctx context.Context, profile Profile) error {
	dl := s.service.Download(ctx, profile)
	if !dl.OK {
		// Transient failure; try again next interval.
		s.log.Debug().Str("message", dl.Message).Msg("download check failed")
		return nil
	}

	remoteChanged := (dl.RemoteEtag != "" && dl.RemoteEtag != profile.LastRemoteEtag) ||
		(dl.RemoteMtime != "" && dl.RemoteMtime != profile.LastRemoteMtime)

	if remoteChanged && dl.Data != "" {
		meta := Meta{
			LastSyncTime: s.now().UnixMilli(),
			Etag:         dl.RemoteEtag,
			Mtime:        dl.RemoteMtime,
		}
		if err := s.hooks.OnRemotePayload(ctx, dl.Data, meta); err != nil {
			return err
		}
		if s.hooks.OnSyncMeta != nil {
			s.hooks.OnSyncMeta(meta)
		}

		// The remote overwrite counts as synced: advance the watermark so
		// no redundant upload follows.
		s.mu.Lock()
		s.lastUploadedRevision = s.hooks.GetLocalRevision()
		s.mu.Unlock()

		s.log.Info().Str("etag", dl.RemoteEtag).Msg("applied remote document")
		return nil
	}

	localRev := s.hooks.GetLocalRevision()
	s.mu.Lock()
	uploaded := s.lastUploadedRevision
	s.mu.Unlock()
	if localRev <= uploaded {
		return nil
	}

	up := s.service.Upload(ctx, profile, s.hooks.GetUploadPayload())
	if !up.OK {
		s.log.Debug().Str("message", up.Message).Msg("upload failed")
		return nil
	}

	s.mu.Lock()
	s.lastUploadedRevision = localRev
	s.mu.Unlock()
	if s.hooks.OnSyncMeta != nil {
		s.hooks.OnSyncMeta(Meta{
			LastSyncTime: s.now().UnixMilli(),
			Etag:         up.RemoteEtag,
			Mtime:        up.RemoteMtime,
		})
	}

	s.log.Info().Int64("revision", localRev).Msg("uploaded local document")
	return nil
}

func (s *Scheduler) scheduleNext() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}

	interval := time.Duration(s.hooks.GetProfile().Interval()) * time.Minute
	s.timer = time.AfterFunc(interval, func() { s.tick(false) })
}
