package stats

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/observability"
)

// Aggregator recomputes and persists profile statistics. Recomputations for
// the same user are serialized through a per-user mutex so concurrent saves
// cannot lose achievement or streak updates; different users proceed
// independently.
type Aggregator struct {
	activities domain.ActivityStore
	profiles   domain.ProfileStore
	locks      sync.Map // uid → *sync.Mutex
	logger     *log.Logger
	now        func() time.Time
}

// AggregatorOption customises an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger overrides the aggregator logger.
func WithLogger(logger *log.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

// WithClock overrides the time source used for "today" and unlock stamps.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator constructs an Aggregator over the given stores.
func NewAggregator(activities domain.ActivityStore, profiles domain.ProfileStore, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		activities: activities,
		profiles:   profiles,
		logger:     log.New(io.Discard, "", 0),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) userLock(uid string) *sync.Mutex {
	lock, _ := a.locks.LoadOrStore(uid, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ActivityRecorded folds a newly saved activity into the user's profile and
// persists the result. The history is fetched after the triggering save has
// been acknowledged, so the computation never runs against a stale list.
// When persisting the updated profile fails the recomputed value is still
// returned alongside the error so callers can display it optimistically
// while surfacing the divergence.
func (a *Aggregator) ActivityRecorded(ctx context.Context, activity domain.Activity) (*domain.UserProfile, error) {
	mu := a.userLock(activity.UserID)
	mu.Lock()
	defer mu.Unlock()

	started := a.now()
	defer func() { observability.ObserveRecompute(time.Since(started)) }()

	profile, err := a.profiles.Get(ctx, activity.UserID)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", activity.UserID, err)
	}

	history, err := a.activities.List(ctx, activity.UserID)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", activity.UserID, err)
	}

	updated := ApplyActivity(profile, activity, history, a.now())
	return a.persist(ctx, profile, updated)
}

// RebuildUser re-derives the profile's statistics from the full history and
// persists the result. Used for repair and consistency checks.
func (a *Aggregator) RebuildUser(ctx context.Context, uid string) (*domain.UserProfile, error) {
	mu := a.userLock(uid)
	mu.Lock()
	defer mu.Unlock()

	started := a.now()
	defer func() { observability.ObserveRecompute(time.Since(started)) }()

	profile, err := a.profiles.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", uid, err)
	}

	history, err := a.activities.List(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", uid, err)
	}

	updated := Rebuild(profile, history, a.now())
	return a.persist(ctx, profile, updated)
}

func (a *Aggregator) persist(ctx context.Context, previous, updated *domain.UserProfile) (*domain.UserProfile, error) {
	if err := a.profiles.Update(ctx, updated); err != nil {
		return updated, fmt.Errorf("persist recomputed profile %s: %w", updated.UID, err)
	}

	for id := range updated.Achievements {
		if !previous.HasAchievement(id) {
			a.logger.Printf("user %s unlocked %s", updated.UID, id)
			observability.RecordAchievementUnlocked(id)
		}
	}
	return updated, nil
}
