// Package cloudsync reconciles the local start-page document against a
// remote backup store through pluggable providers.
package cloudsync

import "context"

// ProviderID identifies a sync provider. The identifier space is closed:
// profiles are validated at the type level and unknown ids are a
// programming error.
type ProviderID string

const (
	ProviderWebDAV ProviderID = "webdav"
	ProviderNone   ProviderID = "none"
)

// DefaultIntervalMinutes is used when a profile does not set an interval.
const DefaultIntervalMinutes = 10

// Profile is the user-configured sync destination and policy. The WebDAV
// fields are only meaningful when Provider is ProviderWebDAV.
type Profile struct {
	Provider ProviderID `json:"provider"`
	Enabled  bool       `json:"enabled"`
	AutoSync bool       `json:"autoSync"`

	// Last successful sync, unix milliseconds.
	LastSyncTime    int64  `json:"lastSyncTime"`
	LastRemoteEtag  string `json:"lastRemoteEtag,omitempty"`
	LastRemoteMtime string `json:"lastRemoteMtime,omitempty"`

	// Minutes between scheduler ticks; 0 means DefaultIntervalMinutes.
	IntervalMinutes int `json:"intervalMinutes,omitempty"`

	// WebDAV destination.
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Folder   string `json:"folder,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Interval returns the effective tick interval in minutes, clamped to at
// least one minute.
func (p Profile) Interval() int {
	min := p.IntervalMinutes
	if min <= 0 {
		min = DefaultIntervalMinutes
	}
	if min < 1 {
		min = 1
	}
	return min
}

// Result is the uniform outcome of every provider operation. Ordinary
// failure modes (network errors, non-2xx responses) are reported with
// OK=false rather than a Go error, so callers above the provider boundary
// never see surprise errors from I/O.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`

	// Raw document text, set on successful downloads. Parsing is
	// deliberately deferred to the normalization pipeline.
	Data string `json:"data,omitempty"`

	// Remote change signals, compared against the profile's last-seen
	// values to detect divergence.
	RemoteEtag  string `json:"remoteEtag,omitempty"`
	RemoteMtime string `json:"remoteMtime,omitempty"`
}

// Provider translates abstract test/upload/download calls into operations
// against a concrete remote store.
type Provider interface {
	Test(ctx context.Context, profile Profile) Result
	Upload(ctx context.Context, profile Profile, payload string) Result
	Download(ctx context.Context, profile Profile) Result
}
