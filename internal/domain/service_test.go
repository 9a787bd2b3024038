package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubActivityStore struct {
	created bool
	saveErr error
	history []Activity
}

func (s *stubActivityStore) Save(_ context.Context, activity *Activity) (string, bool, error) {
	if s.saveErr != nil {
		return "", false, s.saveErr
	}
	if activity.ID == "" {
		activity.ID = "a1"
	}
	return activity.ID, s.created, nil
}

func (s *stubActivityStore) Get(context.Context, string, string) (*Activity, error) {
	return nil, ErrActivityNotFound
}

func (s *stubActivityStore) List(context.Context, string) ([]Activity, error) {
	return s.history, nil
}

func (s *stubActivityStore) ListByDateRange(context.Context, string, int64, int64) ([]Activity, error) {
	return nil, nil
}

func (s *stubActivityStore) Update(context.Context, *Activity) error { return nil }

func (s *stubActivityStore) Delete(context.Context, string, string) error { return nil }

type stubProfileStore struct{}

func (stubProfileStore) Create(_ context.Context, uid, email string) (*UserProfile, error) {
	return NewUserProfile(uid, email, 0), nil
}

func (stubProfileStore) Get(_ context.Context, uid string) (*UserProfile, error) {
	return NewUserProfile(uid, "", 0), nil
}

func (stubProfileStore) Update(context.Context, *UserProfile) error { return nil }

type stubRecomputer struct {
	calls   int
	profile *UserProfile
	err     error
}

func (r *stubRecomputer) ActivityRecorded(_ context.Context, _ Activity) (*UserProfile, error) {
	r.calls++
	return r.profile, r.err
}

func (r *stubRecomputer) RebuildUser(context.Context, string) (*UserProfile, error) {
	return r.profile, r.err
}

type stubPublisher struct {
	calls int
	err   error
}

func (p *stubPublisher) ActivitySaved(context.Context, Activity) error {
	p.calls++
	return p.err
}

func TestSaveActivityFirstSaveTriggersRecomputeAndPublish(t *testing.T) {
	recomputer := &stubRecomputer{profile: NewUserProfile("u1", "", 0)}
	publisher := &stubPublisher{}
	svc := NewService(&stubActivityStore{created: true}, stubProfileStore{}, recomputer, publisher)

	profile, err := svc.SaveActivity(context.Background(), &Activity{UserID: "u1", Type: TypeWalk})
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, 1, recomputer.calls)
	require.Equal(t, 1, publisher.calls)
}

func TestSaveActivityOverwriteSkipsRecomputeAndPublish(t *testing.T) {
	recomputer := &stubRecomputer{}
	publisher := &stubPublisher{}
	svc := NewService(&stubActivityStore{created: false}, stubProfileStore{}, recomputer, publisher)

	profile, err := svc.SaveActivity(context.Background(), &Activity{ID: "a1", UserID: "u1", Type: TypeWalk})
	require.NoError(t, err)
	require.Nil(t, profile)
	require.Zero(t, recomputer.calls)
	require.Zero(t, publisher.calls)
}

func TestSaveActivityPublishFailureDoesNotFailSave(t *testing.T) {
	recomputer := &stubRecomputer{profile: NewUserProfile("u1", "", 0)}
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	svc := NewService(&stubActivityStore{created: true}, stubProfileStore{}, recomputer, publisher)

	profile, err := svc.SaveActivity(context.Background(), &Activity{UserID: "u1", Type: TypeWalk})
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, 1, publisher.calls)
}

func TestSaveActivityRecomputeErrorSurfacesWithProfile(t *testing.T) {
	recomputed := NewUserProfile("u1", "", 0)
	recomputed.TotalSteps = 100
	recomputer := &stubRecomputer{profile: recomputed, err: ErrStoreWrite}
	svc := NewService(&stubActivityStore{created: true}, stubProfileStore{}, recomputer, &stubPublisher{})

	profile, err := svc.SaveActivity(context.Background(), &Activity{UserID: "u1", Type: TypeWalk})
	require.ErrorIs(t, err, ErrStatsRecompute)
	require.ErrorIs(t, err, ErrStoreWrite)
	require.NotNil(t, profile)
	require.Equal(t, 100, profile.TotalSteps)
}

func TestSaveActivityStoreErrorShortCircuits(t *testing.T) {
	recomputer := &stubRecomputer{}
	publisher := &stubPublisher{}
	svc := NewService(&stubActivityStore{saveErr: ErrStoreTimeout}, stubProfileStore{}, recomputer, publisher)

	_, err := svc.SaveActivity(context.Background(), &Activity{UserID: "u1", Type: TypeWalk})
	require.ErrorIs(t, err, ErrStoreTimeout)
	require.Zero(t, recomputer.calls)
	require.Zero(t, publisher.calls)
}

func TestCreateProfileRequiresUID(t *testing.T) {
	svc := NewService(&stubActivityStore{}, stubProfileStore{}, &stubRecomputer{}, &stubPublisher{})

	_, err := svc.CreateProfile(context.Background(), "", "x@example.com")
	require.Error(t, err)
}
