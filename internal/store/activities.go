package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/kv"
	"example.com/fittrack/internal/observability"
)

// Activities implements domain.ActivityStore over a kv.Backend. Records live
// at users/{uid}/activities/{id} as full JSON documents; every write is an
// overwrite.
type Activities struct {
	backend kv.Backend
	wait    time.Duration
	logger  *log.Logger
}

// Option customises a store.
type Option func(*options)

type options struct {
	wait   time.Duration
	logger *log.Logger
}

// WithWait overrides the bounded wait applied to each store call.
func WithWait(wait time.Duration) Option {
	return func(o *options) { o.wait = wait }
}

// WithLogger overrides the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{wait: DefaultWait, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewActivities constructs an activity store over the backend.
func NewActivities(backend kv.Backend, opts ...Option) *Activities {
	o := buildOptions(opts)
	return &Activities{backend: backend, wait: o.wait, logger: o.logger}
}

func activitiesPath(userID string) string {
	return kv.Join("users", userID, "activities")
}

func activityPath(userID, id string) string {
	return kv.Join("users", userID, "activities", id)
}

// Save writes the full record, requesting a new child key first when the id
// is unset. Retrying with an assigned id is an idempotent overwrite.
func (s *Activities) Save(ctx context.Context, activity *domain.Activity) (string, bool, error) {
	if activity.UserID == "" {
		return "", false, fmt.Errorf("save activity: user id is required")
	}

	created := activity.ID == ""
	if created {
		activity.ID = s.backend.GenerateKey(activitiesPath(activity.UserID))
	}
	activity.Date = domain.CalendarDate(activity.StartedAtMillis)

	payload, err := json.Marshal(activity)
	if err != nil {
		return "", false, fmt.Errorf("encode activity %s: %w", activity.ID, err)
	}

	path := activityPath(activity.UserID, activity.ID)
	if err := awaitWrite(ctx, s.wait, "save", path, func(done func(error)) {
		s.backend.Set(path, payload, done)
	}); err != nil {
		if created {
			// Keep the record unsaved-looking so a retry goes through the
			// create path again.
			activity.ID = ""
		}
		return "", false, err
	}

	if created {
		observability.RecordActivitySaved()
	}
	return activity.ID, created, nil
}

// Get fetches one activity by id.
func (s *Activities) Get(ctx context.Context, userID, id string) (*domain.Activity, error) {
	snap, err := awaitRead(ctx, s.wait, s.backend, "get", activityPath(userID, id))
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, fmt.Errorf("activity %s: %w", id, domain.ErrActivityNotFound)
	}

	var activity domain.Activity
	if err := json.Unmarshal(snap.Value, &activity); err != nil {
		return nil, fmt.Errorf("decode activity %s: %w", id, err)
	}
	activity.ID = id
	return &activity, nil
}

// List returns the user's full history ordered by start time descending. A
// user with no activities yields an empty slice. When the backend never
// answers the call returns an empty slice together with ErrStoreTimeout so
// callers can show a stale-data indicator.
func (s *Activities) List(ctx context.Context, userID string) ([]domain.Activity, error) {
	snap, err := awaitRead(ctx, s.wait, s.backend, "list", activitiesPath(userID))
	if err != nil {
		return []domain.Activity{}, err
	}

	activities := make([]domain.Activity, 0, len(snap.Children))
	for id, raw := range snap.Children {
		var activity domain.Activity
		if err := json.Unmarshal(raw, &activity); err != nil {
			// One malformed record must not hide the rest of the history.
			s.logger.Printf("skipping undecodable activity %s/%s: %v", userID, id, err)
			continue
		}
		activity.ID = id
		activities = append(activities, activity)
	}

	sort.Slice(activities, func(i, j int) bool {
		if activities[i].StartedAtMillis != activities[j].StartedAtMillis {
			return activities[i].StartedAtMillis > activities[j].StartedAtMillis
		}
		return activities[i].ID < activities[j].ID
	})
	return activities, nil
}

// ListByDateRange filters the history to records whose start time falls in
// [startMillis, endMillis], bounds inclusive, preserving List's ordering.
func (s *Activities) ListByDateRange(ctx context.Context, userID string, startMillis, endMillis int64) ([]domain.Activity, error) {
	activities, err := s.List(ctx, userID)
	if err != nil {
		return activities, err
	}

	filtered := make([]domain.Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.StartedAtMillis >= startMillis && activity.StartedAtMillis <= endMillis {
			filtered = append(filtered, activity)
		}
	}
	return filtered, nil
}

// Update overwrites an existing record. An unset id fails with
// ErrActivityNotFound; Update never creates.
func (s *Activities) Update(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == "" {
		return fmt.Errorf("update activity without id: %w", domain.ErrActivityNotFound)
	}

	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("encode activity %s: %w", activity.ID, err)
	}

	path := activityPath(activity.UserID, activity.ID)
	return awaitWrite(ctx, s.wait, "update", path, func(done func(error)) {
		s.backend.Set(path, payload, done)
	})
}

// Delete removes one activity.
func (s *Activities) Delete(ctx context.Context, userID, id string) error {
	path := activityPath(userID, id)
	if err := awaitWrite(ctx, s.wait, "delete", path, func(done func(error)) {
		s.backend.Delete(path, done)
	}); err != nil {
		return err
	}
	observability.RecordActivityDeleted()
	return nil
}
