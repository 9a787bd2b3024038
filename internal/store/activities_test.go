package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/kv"
)

// silentBackend never answers, standing in for an unreachable remote store.
type silentBackend struct{}

func (silentBackend) GenerateKey(string) string                   { return "k1" }
func (silentBackend) Set(string, []byte, func(error))             {}
func (silentBackend) Once(string, func(kv.Snapshot), func(error)) {}
func (silentBackend) Delete(string, func(error))                  {}

// faultyBackend rejects every write and fails every read.
type faultyBackend struct {
	err error
}

func (b faultyBackend) GenerateKey(string) string { return "k1" }
func (b faultyBackend) Set(_ string, _ []byte, done func(error)) {
	go done(b.err)
}
func (b faultyBackend) Once(_ string, _ func(kv.Snapshot), onError func(error)) {
	go onError(b.err)
}
func (b faultyBackend) Delete(_ string, done func(error)) {
	go done(b.err)
}

func walkActivity(userID string, startedAt int64, steps int) *domain.Activity {
	return &domain.Activity{
		UserID:          userID,
		StartedAtMillis: startedAt,
		Type:            domain.TypeWalk,
		DurationSeconds: 1800,
		Steps:           steps,
		DistanceKm:      domain.DistanceFromSteps(steps, domain.TypeWalk),
	}
}

func TestSaveAssignsIDAndDate(t *testing.T) {
	s := NewActivities(kv.NewMemory())
	activity := walkActivity("u1", time.Now().UnixMilli(), 1200)

	id, created, err := s.Save(context.Background(), activity)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, id)
	require.Equal(t, id, activity.ID)
	require.Equal(t, domain.CalendarDate(activity.StartedAtMillis), activity.Date)
}

func TestSaveExistingIDIsOverwrite(t *testing.T) {
	s := NewActivities(kv.NewMemory())
	activity := walkActivity("u1", 1_700_000_000_000, 1200)

	id, created, err := s.Save(context.Background(), activity)
	require.NoError(t, err)
	require.True(t, created)

	// Saving again with the assigned id must not create a second record.
	id2, created2, err := s.Save(context.Background(), activity)
	require.NoError(t, err)
	require.False(t, created2)
	require.Equal(t, id, id2)

	activities, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, activities, 1)
}

func TestRoundTripPreservesFieldsExceptNotes(t *testing.T) {
	s := NewActivities(kv.NewMemory())
	ctx := context.Background()

	original := walkActivity("u1", 1_700_000_000_000, 4321)
	original.Route = []domain.RoutePoint{{Latitude: 1.35, Longitude: 103.81, TimestampMillis: 1_700_000_100_000}}
	original.Notes = "morning loop"

	_, _, err := s.Save(ctx, original)
	require.NoError(t, err)

	loaded, err := s.Get(ctx, "u1", original.ID)
	require.NoError(t, err)
	require.Equal(t, original, loaded)

	loaded.Notes = "evening loop actually"
	require.NoError(t, s.Update(ctx, loaded))

	reloaded, err := s.Get(ctx, "u1", original.ID)
	require.NoError(t, err)
	require.Equal(t, "evening loop actually", reloaded.Notes)

	reloaded.Notes = original.Notes
	require.Equal(t, original, reloaded)
}

func TestGetMissingActivity(t *testing.T) {
	s := NewActivities(kv.NewMemory())

	_, err := s.Get(context.Background(), "u1", "ghost")
	require.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func TestListOrdersByStartDescending(t *testing.T) {
	s := NewActivities(kv.NewMemory())
	ctx := context.Background()

	for _, startedAt := range []int64{3000, 1000, 2000} {
		_, _, err := s.Save(ctx, walkActivity("u1", startedAt, 10))
		require.NoError(t, err)
	}

	activities, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, activities, 3)
	require.Equal(t, int64(3000), activities[0].StartedAtMillis)
	require.Equal(t, int64(2000), activities[1].StartedAtMillis)
	require.Equal(t, int64(1000), activities[2].StartedAtMillis)
}

func TestListEmptyHistory(t *testing.T) {
	s := NewActivities(kv.NewMemory())

	activities, err := s.List(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, activities)
	require.Empty(t, activities)
}

func TestListTimesOutAgainstSilentStore(t *testing.T) {
	s := NewActivities(silentBackend{}, WithWait(50*time.Millisecond))

	started := time.Now()
	activities, err := s.List(context.Background(), "u1")
	require.ErrorIs(t, err, domain.ErrStoreTimeout)
	require.Empty(t, activities)
	require.Less(t, time.Since(started), 5*time.Second)
}

func TestSaveTimesOutAgainstSilentStore(t *testing.T) {
	s := NewActivities(silentBackend{}, WithWait(50*time.Millisecond))
	activity := walkActivity("u1", 1000, 10)

	_, _, err := s.Save(context.Background(), activity)
	require.ErrorIs(t, err, domain.ErrStoreTimeout)
	// The id assignment is rolled back so a retry recreates cleanly.
	require.Empty(t, activity.ID)
}

func TestSaveSurfacesWriteRejection(t *testing.T) {
	s := NewActivities(faultyBackend{err: errors.New("disk full")})
	activity := walkActivity("u1", 1000, 10)

	_, _, err := s.Save(context.Background(), activity)
	require.ErrorIs(t, err, domain.ErrStoreWrite)
	require.Empty(t, activity.ID)
}

func TestListByDateRangeInclusiveBounds(t *testing.T) {
	s := NewActivities(kv.NewMemory())
	ctx := context.Background()

	for _, startedAt := range []int64{1000, 2000, 3000, 4000} {
		_, _, err := s.Save(ctx, walkActivity("u1", startedAt, 10))
		require.NoError(t, err)
	}

	activities, err := s.ListByDateRange(ctx, "u1", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	require.Equal(t, int64(3000), activities[0].StartedAtMillis)
	require.Equal(t, int64(2000), activities[1].StartedAtMillis)
}

func TestUpdateWithoutIDFails(t *testing.T) {
	s := NewActivities(kv.NewMemory())

	err := s.Update(context.Background(), walkActivity("u1", 1000, 10))
	require.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func TestDeleteRemovesActivity(t *testing.T) {
	s := NewActivities(kv.NewMemory())
	ctx := context.Background()

	activity := walkActivity("u1", 1000, 10)
	_, _, err := s.Save(ctx, activity)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "u1", activity.ID))

	_, err = s.Get(ctx, "u1", activity.ID)
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	activities, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, activities)
}
