package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/course-conditions/internal/domain"
	"github.com/course-conditions/internal/identity"
)

// ProfileService provides business logic for user profiles and display-name
// resolution
type ProfileService struct {
	profiles ProfileStore
	provider DisplayNamePropagator
	logger   *slog.Logger
	now      func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore, provider DisplayNamePropagator, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// ResolveDisplayNameForSubmission returns the display name to snapshot onto a
// new report: the stored profile name when set, else the identity-asserted
// name. With neither available the submission must be rejected rather than
// stored anonymously.
func (s *ProfileService) ResolveDisplayNameForSubmission(ctx context.Context, userID, assertedName string) (string, error) {
	profile, err := s.profiles.Profile(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		// A store hiccup falls through to the token name rather than
		// blocking the submission outright
		s.logger.Warn("failed to fetch profile for display name", "user_id", userID, "error", err)
	}
	if err == nil && profile.DisplayName != "" {
		return profile.DisplayName, nil
	}

	if assertedName != "" {
		s.logger.Warn("falling back to identity-asserted display name", "user_id", userID)
		return assertedName, nil
	}

	return "", domain.ErrDisplayNameRequired
}

// GetProfile returns the user's stored profile. When none exists a transient
// default is synthesized from the identity-asserted fields without being
// persisted; the first real write happens on explicit update.
func (s *ProfileService) GetProfile(ctx context.Context, ident identity.Identity) (*domain.UserProfile, error) {
	profile, err := s.profiles.Profile(ctx, ident.UID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return &domain.UserProfile{
			UserID:      ident.UID,
			Email:       ident.Email,
			PhotoURL:    ident.Picture,
			DisplayName: firstNonEmpty(ident.Name, ident.Email),
			DateCreated: s.now().UTC(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	s.applyIdentityFallbacks(profile, ident)
	return profile, nil
}

// UpdateProfile applies a partial update with merge semantics, creating the
// record if absent. The new display name is propagated to the identity
// provider best-effort; the store write is authoritative.
func (s *ProfileService) UpdateProfile(ctx context.Context, ident identity.Identity, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	if update.Empty() {
		return nil, domain.ErrNoProfileFields
	}

	profile, err := s.profiles.UpsertProfile(ctx, ident.UID, update)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	s.applyIdentityFallbacks(profile, ident)

	if s.provider != nil && profile.DisplayName != "" {
		if err := s.provider.UpdateDisplayName(ctx, ident.UID, profile.DisplayName); err != nil {
			s.logger.Warn("failed to propagate display name to identity provider", "user_id", ident.UID, "error", err)
		}
	}

	return profile, nil
}

// applyIdentityFallbacks fills empty stored fields from the token-asserted
// attributes for display purposes; nothing is written back
func (s *ProfileService) applyIdentityFallbacks(profile *domain.UserProfile, ident identity.Identity) {
	if profile.Email == "" {
		profile.Email = ident.Email
	}
	if profile.PhotoURL == "" {
		profile.PhotoURL = ident.Picture
	}
	if profile.DisplayName == "" {
		profile.DisplayName = firstNonEmpty(ident.Name, ident.Email)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
