package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/kv"
)

func TestProfileCreateAppliesDefaults(t *testing.T) {
	s := NewProfiles(kv.NewMemory())

	profile, err := s.Create(context.Background(), "u1", "u1@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", profile.UID)
	require.Equal(t, "u1@example.com", profile.Email)
	require.Equal(t, 70.0, profile.WeightKg)
	require.Equal(t, domain.DefaultPreferences(), profile.Preferences)
	require.NotZero(t, profile.MemberSince)
}

func TestProfileRoundTrip(t *testing.T) {
	s := NewProfiles(kv.NewMemory())
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	created.TotalSteps = 12000
	created.CurrentStreak = 3
	created.Unlock(domain.AchievementTenKSteps, 1_700_000_000)
	require.NoError(t, s.Update(ctx, created))

	loaded, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, created, loaded)
}

func TestProfileGetMissing(t *testing.T) {
	s := NewProfiles(kv.NewMemory())

	_, err := s.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestProfileGetNormalizesSparseDocument(t *testing.T) {
	backend := kv.NewMemory()
	done := make(chan error, 1)
	backend.Set("users/u1/profile", []byte(`{"uid":"u1","email":"u1@example.com"}`), func(err error) { done <- err })
	require.NoError(t, <-done)

	s := NewProfiles(backend)
	profile, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 70.0, profile.WeightKg)
	require.Equal(t, 170.0, profile.HeightCm)
	require.NotNil(t, profile.Achievements)
	require.Equal(t, domain.DefaultPreferences(), profile.Preferences)
}

func TestProfileGetTimesOutAgainstSilentStore(t *testing.T) {
	s := NewProfiles(silentBackend{}, WithWait(50*time.Millisecond))

	_, err := s.Get(context.Background(), "u1")
	require.ErrorIs(t, err, domain.ErrStoreTimeout)
}
