package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager() (*Manager, *testClock) {
	clock := &testClock{now: time.Date(2026, time.September, 1, 8, 0, 0, 0, time.Local)}
	return NewManager(WithClock(clock.Now)), clock
}

func TestManagerOneSessionPerUser(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Start("u1", domain.TypeWalk)
	require.NoError(t, err)

	_, err = m.Start("u1", domain.TypeRun)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	// A different user is unaffected.
	_, err = m.Start("u2", domain.TypeRun)
	require.NoError(t, err)
}

func TestManagerStatusTracksSamples(t *testing.T) {
	m, clock := newTestManager()

	startedAt, err := m.Start("u1", domain.TypeWalk)
	require.NoError(t, err)

	clock.Advance(90 * time.Second)
	for i := 0; i < 250; i++ {
		_, err := m.RecordStep("u1")
		require.NoError(t, err)
	}
	require.NoError(t, m.RecordRoutePoint("u1", 1.3521, 103.8198))

	status, err := m.Status("u1")
	require.NoError(t, err)
	require.Equal(t, startedAt, status.StartedAtMillis)
	require.Equal(t, 90, status.ElapsedSeconds)
	require.Equal(t, 250, status.Steps)
	require.InDelta(t, 0.2, status.DistanceKm, 1e-9)
	require.Equal(t, 1, status.RoutePoints)
}

func TestManagerStopFinalizesAndRemoves(t *testing.T) {
	m, clock := newTestManager()

	_, err := m.Start("u1", domain.TypeRun)
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)

	activity, err := m.Stop("u1")
	require.NoError(t, err)
	require.Equal(t, 1800, activity.DurationSeconds)

	_, err = m.Status("u1")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	// The user can start again right away.
	_, err = m.Start("u1", domain.TypeCycle)
	require.NoError(t, err)
}

func TestManagerAbandonDiscards(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Start("u1", domain.TypeHike)
	require.NoError(t, err)

	m.Abandon("u1")

	_, err = m.Stop("u1")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestManagerUnknownUser(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.RecordStep("ghost")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	require.ErrorIs(t, m.RecordRoutePoint("ghost", 1, 1), domain.ErrInvalidState)
}
