package cloudsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher scripts provider results and records calls.
type fakeDispatcher struct {
	mu        sync.Mutex
	download  Result
	upload    Result
	uploads   []string
	downloads int
}

func (f *fakeDispatcher) Test(context.Context, Profile) Result {
	return Result{OK: true, Message: "connection succeeded"}
}

func (f *fakeDispatcher) Upload(_ context.Context, _ Profile, payload string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, payload)
	return f.upload
}

func (f *fakeDispatcher) Download(context.Context, Profile) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	return f.download
}

func (f *fakeDispatcher) setDownload(r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.download = r
}

func (f *fakeDispatcher) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeDispatcher) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads
}

type schedulerHarness struct {
	dispatcher *fakeDispatcher
	scheduler  *Scheduler

	mu       sync.Mutex
	profile  Profile
	revision int64
	applied  []string
	metas    []Meta
}

func newHarness(profile Profile) *schedulerHarness {
	h := &schedulerHarness{
		dispatcher: &fakeDispatcher{
			download: Result{OK: false, Message: "no backup"},
			upload:   Result{OK: true, RemoteEtag: `"up1"`},
		},
		profile: profile,
	}
	h.scheduler = NewScheduler(h.dispatcher, Hooks{
		GetProfile: func() Profile {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.profile
		},
		GetUploadPayload: func() string { return `{"version":1}` },
		GetLocalRevision: func() int64 {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.revision
		},
		OnRemotePayload: func(_ context.Context, text string, meta Meta) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.applied = append(h.applied, text)
			h.profile.LastRemoteEtag = meta.Etag
			h.profile.LastRemoteMtime = meta.Mtime
			return nil
		},
		OnSyncMeta: func(meta Meta) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.metas = append(h.metas, meta)
			h.profile.LastRemoteEtag = meta.Etag
			h.profile.LastRemoteMtime = meta.Mtime
		},
	}, zerolog.Nop())
	return h
}

// start marks the scheduler running without launching the asynchronous
// initial tick, so tests drive every reconciliation explicitly.
func (h *schedulerHarness) start(t *testing.T) {
	t.Helper()
	rev := h.scheduler.hooks.GetLocalRevision()
	h.scheduler.mu.Lock()
	h.scheduler.running = true
	h.scheduler.ctx, h.scheduler.cancel = context.WithCancel(context.Background())
	h.scheduler.lastUploadedRevision = rev
	h.scheduler.mu.Unlock()
	t.Cleanup(h.scheduler.Stop)
}

func (h *schedulerHarness) bump() {
	h.mu.Lock()
	h.revision++
	h.mu.Unlock()
}

func (h *schedulerHarness) appliedPayloads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.applied...)
}

func (h *schedulerHarness) currentProfile() Profile {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.profile
}

func webdavProfile() Profile {
	return Profile{
		Provider: ProviderWebDAV,
		Enabled:  true,
		AutoSync: true,
		URL:      "https://cloud.example.com/dav",
	}
}

func TestSchedulerStoppedTickIsNoop(t *testing.T) {
	h := newHarness(webdavProfile())
	h.scheduler.tick(true)
	assert.Zero(t, h.dispatcher.downloadCount())
}

func TestSchedulerDisabledProfileSkipsReconcile(t *testing.T) {
	profile := webdavProfile()
	profile.Enabled = false
	h := newHarness(profile)
	h.start(t)

	h.scheduler.tick(true)
	assert.Zero(t, h.dispatcher.downloadCount())
}

func TestSchedulerNoneProviderSkipsReconcile(t *testing.T) {
	profile := webdavProfile()
	profile.Provider = ProviderNone
	h := newHarness(profile)
	h.start(t)

	h.scheduler.tick(true)
	assert.Zero(t, h.dispatcher.downloadCount())
}

func TestSchedulerAutoSyncOffOnlyManualTicks(t *testing.T) {
	profile := webdavProfile()
	profile.AutoSync = false
	h := newHarness(profile)
	h.start(t)

	h.scheduler.tick(false)
	assert.Zero(t, h.dispatcher.downloadCount(), "automatic tick must not reconcile")

	h.scheduler.tick(true)
	assert.Equal(t, 1, h.dispatcher.downloadCount(), "manual tick must reconcile")
}

func TestSchedulerRemoteWinsWholesale(t *testing.T) {
	h := newHarness(webdavProfile())
	h.start(t)
	h.dispatcher.setDownload(Result{
		OK:         true,
		Data:       `{"version":1,"currentEngineId":"bing"}`,
		RemoteEtag: `"remote2"`,
	})
	h.bump() // local edit that would otherwise upload

	h.scheduler.tick(true)

	applied := h.appliedPayloads()
	require.Len(t, applied, 1)
	assert.Equal(t, `{"version":1,"currentEngineId":"bing"}`, applied[0])
	// Remote apply advances the watermark, so the dirty local edit is
	// not uploaded afterwards.
	assert.Zero(t, h.dispatcher.uploadCount())
	assert.Equal(t, `"remote2"`, h.currentProfile().LastRemoteEtag)
}

func TestSchedulerUnchangedRemoteUploadsDirtyLocal(t *testing.T) {
	h := newHarness(webdavProfile())
	h.start(t)
	// Remote reachable and unchanged (etag matches the stored signal).
	h.mu.Lock()
	h.profile.LastRemoteEtag = `"same"`
	h.mu.Unlock()
	h.dispatcher.setDownload(Result{OK: true, Data: `{}`, RemoteEtag: `"same"`})

	h.scheduler.tick(true)
	assert.Zero(t, h.dispatcher.uploadCount(), "clean local state must not upload")

	h.bump()
	h.scheduler.tick(true)
	assert.Equal(t, 1, h.dispatcher.uploadCount())

	h.mu.Lock()
	require.Len(t, h.metas, 1)
	assert.Equal(t, `"up1"`, h.metas[0].Etag)
	h.mu.Unlock()

	// Metadata recording must not re-dirty the document: the next tick
	// uploads nothing.
	h.scheduler.tick(true)
	assert.Equal(t, 1, h.dispatcher.uploadCount(), "repeat tick must not re-upload")
}

func TestSchedulerEmptySignalsMeanUnchanged(t *testing.T) {
	h := newHarness(webdavProfile())
	h.start(t)
	// A server that reports neither etag nor mtime can never look
	// changed; only local uploads flow.
	h.dispatcher.setDownload(Result{OK: true, Data: `{}`})

	h.scheduler.tick(true)
	assert.Empty(t, h.appliedPayloads())
}

func TestSchedulerDownloadFailureIsSilent(t *testing.T) {
	h := newHarness(webdavProfile())
	h.start(t)
	h.dispatcher.setDownload(Result{OK: false, Message: "download failed or no backup (HTTP 404)"})
	h.bump()

	h.scheduler.tick(true)
	// Download-first reconciliation refuses to upload blind when the
	// remote state is unknown.
	assert.Zero(t, h.dispatcher.uploadCount())
	assert.Empty(t, h.appliedPayloads())
}

func TestSchedulerStartSeedsWatermark(t *testing.T) {
	h := newHarness(webdavProfile())
	h.mu.Lock()
	h.revision = 7
	h.mu.Unlock()
	h.dispatcher.setDownload(Result{OK: true, Data: `{}`})

	h.scheduler.Start()
	defer h.scheduler.Stop()

	// The initial tick runs asynchronously; wait for it to settle.
	require.Eventually(t, func() bool {
		return h.dispatcher.downloadCount() >= 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(7), h.scheduler.LastUploadedRevision())
	assert.Zero(t, h.dispatcher.uploadCount(), "pre-existing revision must not trigger a spurious upload")
}

func TestSchedulerStopIdempotent(t *testing.T) {
	profile := webdavProfile()
	profile.AutoSync = false // keep the initial automatic tick inert
	h := newHarness(profile)

	h.scheduler.Start()
	assert.True(t, h.scheduler.Running())

	h.scheduler.Stop()
	h.scheduler.Stop()
	assert.False(t, h.scheduler.Running())

	// Ticks after Stop are no-ops.
	h.scheduler.tick(true)
	assert.Zero(t, h.dispatcher.downloadCount())
}

func TestSchedulerCallbackErrorKeepsLoopAlive(t *testing.T) {
	var mu sync.Mutex
	var gotErr error

	h := newHarness(webdavProfile())
	h.scheduler.hooks.OnRemotePayload = func(context.Context, string, Meta) error {
		return assert.AnError
	}
	h.scheduler.hooks.OnError = func(err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
	}
	h.start(t)
	h.dispatcher.setDownload(Result{OK: true, Data: `{}`, RemoteEtag: `"x"`})

	h.scheduler.tick(true)
	mu.Lock()
	assert.ErrorIs(t, gotErr, assert.AnError)
	mu.Unlock()

	// The loop still works on the next tick.
	h.scheduler.tick(true)
	assert.Equal(t, 2, h.dispatcher.downloadCount())
}

func TestProfileIntervalClamp(t *testing.T) {
	assert.Equal(t, DefaultIntervalMinutes, Profile{}.Interval())
	assert.Equal(t, DefaultIntervalMinutes, Profile{IntervalMinutes: -5}.Interval())
	assert.Equal(t, 1, Profile{IntervalMinutes: 1}.Interval())
	assert.Equal(t, 90, Profile{IntervalMinutes: 90}.Interval())
}
