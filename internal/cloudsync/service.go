package cloudsync

import "context"

// Dispatcher is the sync surface consumed by the scheduler and the HTTP
// layer. *Service is the production implementation.
type Dispatcher interface {
	Test(ctx context.Context, profile Profile) Result
	Upload(ctx context.Context, profile Profile, payload string) Result
	Download(ctx context.Context, profile Profile) Result
}

// Service dispatches operations to the provider selected by the profile.
// Profiles with the "none" provider short-circuit before the registry
// lookup, so "none" never needs a meaningful implementation.
type Service struct {
	registry *Registry
}

// NewService creates a dispatch service over the registry.
func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// Test checks connectivity for the profile's provider.
func (s *Service) Test(ctx context.Context, profile Profile) Result {
	if profile.Provider == ProviderNone {
		return Result{OK: false, Message: disabledMessage}
	}
	return s.registry.Provider(profile.Provider).Test(ctx, profile)
}

// Upload pushes the payload to the profile's provider.
func (s *Service) Upload(ctx context.Context, profile Profile, payload string) Result {
	if profile.Provider == ProviderNone {
		return Result{OK: false, Message: disabledMessage}
	}
	return s.registry.Provider(profile.Provider).Upload(ctx, profile, payload)
}

// Download pulls the remote document from the profile's provider.
func (s *Service) Download(ctx context.Context, profile Profile) Result {
	if profile.Provider == ProviderNone {
		return Result{OK: false, Message: disabledMessage}
	}
	return s.registry.Provider(profile.Provider).Download(ctx, profile)
}
