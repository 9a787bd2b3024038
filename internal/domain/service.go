package domain

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"
)

// ActivityStore captures persistence operations over activity records. Save
// assigns an id on first write and reports whether the record was newly
// created; every write is a full-record overwrite.
type ActivityStore interface {
	Save(ctx context.Context, activity *Activity) (id string, created bool, err error)
	Get(ctx context.Context, userID, id string) (*Activity, error)
	List(ctx context.Context, userID string) ([]Activity, error)
	ListByDateRange(ctx context.Context, userID string, startMillis, endMillis int64) ([]Activity, error)
	Update(ctx context.Context, activity *Activity) error
	Delete(ctx context.Context, userID, id string) error
}

// ProfileStore captures persistence operations over user profiles.
type ProfileStore interface {
	Create(ctx context.Context, uid, email string) (*UserProfile, error)
	Get(ctx context.Context, uid string) (*UserProfile, error)
	Update(ctx context.Context, profile *UserProfile) error
}

// Recomputer rebuilds derived statistics after the activity history changes.
// ActivityRecorded is invoked once per newly saved activity; RebuildUser
// re-derives everything from scratch for repair and consistency checks.
type Recomputer interface {
	ActivityRecorded(ctx context.Context, activity Activity) (*UserProfile, error)
	RebuildUser(ctx context.Context, uid string) (*UserProfile, error)
}

// EventPublisher emits integration events after successful first-time saves.
type EventPublisher interface {
	ActivitySaved(ctx context.Context, activity Activity) error
}

// Service orchestrates the save → recompute → publish pipeline and fronts
// the stores for the transport layer.
type Service struct {
	activities ActivityStore
	profiles   ProfileStore
	recomputer Recomputer
	publisher  EventPublisher
	logger     *log.Logger
	now        func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLogger overrides the service logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(activities ActivityStore, profiles ProfileStore, recomputer Recomputer, publisher EventPublisher, opts ...ServiceOption) *Service {
	s := &Service{
		activities: activities,
		profiles:   profiles,
		recomputer: recomputer,
		publisher:  publisher,
		logger:     log.New(io.Discard, "", 0),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveActivity persists a finalized activity. A first-time save triggers a
// stats recomputation and an integration event; overwrites of an existing id
// trigger neither. An error from the recomputation is wrapped in
// ErrStatsRecompute so callers can tell a stale-stats outcome apart from a
// failed save; the returned profile may still be non-nil alongside it, so
// callers can display optimistic values while surfacing the failure.
func (s *Service) SaveActivity(ctx context.Context, activity *Activity) (*UserProfile, error) {
	_, created, err := s.activities.Save(ctx, activity)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}

	profile, recomputeErr := s.recomputer.ActivityRecorded(ctx, *activity)
	if recomputeErr != nil {
		recomputeErr = fmt.Errorf("%w: %w", ErrStatsRecompute, recomputeErr)
	}

	if err := s.publisher.ActivitySaved(ctx, *activity); err != nil {
		// Event delivery is best-effort; the save already succeeded.
		s.logger.Printf("publish activity.saved for %s: %v", activity.ID, err)
	}

	return profile, recomputeErr
}

// GetActivity fetches one activity by id.
func (s *Service) GetActivity(ctx context.Context, userID, id string) (*Activity, error) {
	return s.activities.Get(ctx, userID, id)
}

// ListActivities returns the user's history ordered by start time descending.
func (s *Service) ListActivities(ctx context.Context, userID string) ([]Activity, error) {
	return s.activities.List(ctx, userID)
}

// ListActivitiesByDateRange filters the history to [startMillis, endMillis],
// bounds inclusive.
func (s *Service) ListActivitiesByDateRange(ctx context.Context, userID string, startMillis, endMillis int64) ([]Activity, error) {
	return s.activities.ListByDateRange(ctx, userID, startMillis, endMillis)
}

// UpdateActivity overwrites an existing record. It never creates: an unset id
// fails with ErrActivityNotFound. Edits do not trigger recomputation; the
// only mutable field after finalize is Notes.
func (s *Service) UpdateActivity(ctx context.Context, activity *Activity) error {
	return s.activities.Update(ctx, activity)
}

// DeleteActivity removes one activity. Derived stats are left as-is until the
// next recomputation; achievements are one-way and survive regardless.
func (s *Service) DeleteActivity(ctx context.Context, userID, id string) error {
	return s.activities.Delete(ctx, userID, id)
}

// StepsByDate rolls up step counts per calendar date over the trailing number
// of days.
func (s *Service) StepsByDate(ctx context.Context, userID string, days int) (map[string]int, error) {
	activities, err := s.activities.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().UnixMilli() - int64(days)*24*int64(time.Hour/time.Millisecond)
	out := make(map[string]int)
	for _, activity := range activities {
		if activity.StartedAtMillis >= cutoff {
			out[activity.Date] += activity.Steps
		}
	}
	return out, nil
}

// CreateProfile provisions the profile stored alongside a new user account.
func (s *Service) CreateProfile(ctx context.Context, uid, email string) (*UserProfile, error) {
	if uid == "" {
		return nil, fmt.Errorf("create profile: uid is required")
	}
	return s.profiles.Create(ctx, uid, email)
}

// GetProfile fetches the stored profile for a user.
func (s *Service) GetProfile(ctx context.Context, uid string) (*UserProfile, error) {
	return s.profiles.Get(ctx, uid)
}

// RebuildStats re-derives totals, streaks and achievements from the full
// history and persists the result.
func (s *Service) RebuildStats(ctx context.Context, uid string) (*UserProfile, error) {
	return s.recomputer.RebuildUser(ctx, uid)
}
