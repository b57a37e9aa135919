package cloudsync

import (
	"context"
	"fmt"
)

const disabledMessage = "sync disabled"

// noneProvider reports a fixed "sync disabled" result for every operation.
type noneProvider struct{}

func (noneProvider) Test(context.Context, Profile) Result {
	return Result{OK: false, Message: disabledMessage}
}

func (noneProvider) Upload(context.Context, Profile, string) Result {
	return Result{OK: false, Message: disabledMessage}
}

func (noneProvider) Download(context.Context, Profile) Result {
	return Result{OK: false, Message: disabledMessage}
}

// Registry maps provider identifiers to implementations. The identifier
// space is closed and validated at the profile level, so an unknown id is
// a programming error and fails loudly.
type Registry struct {
	providers map[ProviderID]Provider
}

// NewRegistry builds the static provider set over the given transport.
func NewRegistry(transport Transport) *Registry {
	return &Registry{
		providers: map[ProviderID]Provider{
			ProviderWebDAV: NewWebDAVProvider(transport),
			ProviderNone:   noneProvider{},
		},
	}
}

// Provider looks up a provider implementation; it panics on unknown ids.
func (r *Registry) Provider(id ProviderID) Provider {
	p, ok := r.providers[id]
	if !ok {
		panic(fmt.Sprintf("unknown sync provider: %s", id))
	}
	return p
}
