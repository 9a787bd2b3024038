package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/kv"
)

// Profiles implements domain.ProfileStore over a kv.Backend. The profile
// document lives at users/{uid}/profile.
type Profiles struct {
	backend kv.Backend
	wait    time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// NewProfiles constructs a profile store over the backend.
func NewProfiles(backend kv.Backend, opts ...Option) *Profiles {
	o := buildOptions(opts)
	return &Profiles{backend: backend, wait: o.wait, logger: o.logger, now: time.Now}
}

func profilePath(uid string) string {
	return kv.Join("users", uid, "profile")
}

// Create writes a fresh profile with default preferences and body metrics.
func (s *Profiles) Create(ctx context.Context, uid, email string) (*domain.UserProfile, error) {
	profile := domain.NewUserProfile(uid, email, s.now().UnixMilli())
	if err := s.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Get fetches the stored profile, applying defaults to sparse documents.
func (s *Profiles) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	snap, err := awaitRead(ctx, s.wait, s.backend, "get_profile", profilePath(uid))
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, fmt.Errorf("profile %s: %w", uid, domain.ErrProfileNotFound)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(snap.Value, &profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", uid, err)
	}
	profile.UID = uid
	profile.Normalize()
	return &profile, nil
}

// Update overwrites the full profile document.
func (s *Profiles) Update(ctx context.Context, profile *domain.UserProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.UID, err)
	}

	path := profilePath(profile.UID)
	return awaitWrite(ctx, s.wait, "update_profile", path, func(done func(error)) {
		s.backend.Set(path, payload, done)
	})
}
