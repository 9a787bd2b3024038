package session

import (
	"fmt"
	"sync"
	"time"

	"example.com/fittrack/internal/domain"
)

// Status is a point-in-time view of a live recording for display refreshes.
// The periodic tick that polls it is the caller's scheduling concern; the
// session itself never blocks on store calls.
type Status struct {
	UserID          string
	Type            domain.ActivityType
	StartedAtMillis int64
	ElapsedSeconds  int
	Steps           int
	DistanceKm      float64
	Pace            string
	RoutePoints     int
}

// Manager keeps at most one active Recorder per user.
type Manager struct {
	mu        sync.Mutex
	recorders map[string]*Recorder
	now       func() time.Time
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs an empty Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{recorders: make(map[string]*Recorder), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}

// Start begins a recording for the user. A user with a session already
// active fails with ErrInvalidState.
func (m *Manager) Start(userID string, activityType domain.ActivityType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recorders[userID]; ok {
		return 0, fmt.Errorf("user %s already recording: %w", userID, domain.ErrInvalidState)
	}

	recorder := NewRecorder()
	startedAt := m.nowMillis()
	if err := recorder.Start(userID, activityType, startedAt); err != nil {
		return 0, err
	}
	m.recorders[userID] = recorder
	return startedAt, nil
}

// RecordStep adds one step to the user's live session.
func (m *Manager) RecordStep(userID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorder, ok := m.recorders[userID]
	if !ok {
		return Status{}, fmt.Errorf("no active session for %s: %w", userID, domain.ErrInvalidState)
	}
	if err := recorder.RecordStep(); err != nil {
		return Status{}, err
	}
	return m.statusLocked(userID, recorder), nil
}

// RecordRoutePoint appends one GPS sample to the user's live session.
func (m *Manager) RecordRoutePoint(userID string, lat, lon float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorder, ok := m.recorders[userID]
	if !ok {
		return fmt.Errorf("no active session for %s: %w", userID, domain.ErrInvalidState)
	}
	return recorder.RecordRoutePoint(lat, lon, m.nowMillis())
}

// Status reports the live session view for display refreshes.
func (m *Manager) Status(userID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorder, ok := m.recorders[userID]
	if !ok {
		return Status{}, fmt.Errorf("no active session for %s: %w", userID, domain.ErrInvalidState)
	}
	return m.statusLocked(userID, recorder), nil
}

func (m *Manager) statusLocked(userID string, recorder *Recorder) Status {
	nowMillis := m.nowMillis()
	elapsed, _ := recorder.ElapsedSeconds(nowMillis)
	return Status{
		UserID:          userID,
		Type:            recorder.Type(),
		StartedAtMillis: recorder.startedAtMillis,
		ElapsedSeconds:  elapsed,
		Steps:           recorder.Steps(),
		DistanceKm:      recorder.DistanceKm(),
		Pace:            recorder.LivePace(nowMillis, true),
		RoutePoints:     len(recorder.route),
	}
}

// Stop finalizes the user's session and removes it from the registry.
func (m *Manager) Stop(userID string) (*domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorder, ok := m.recorders[userID]
	if !ok {
		return nil, fmt.Errorf("no active session for %s: %w", userID, domain.ErrInvalidState)
	}

	activity, err := recorder.Stop(m.nowMillis())
	if err != nil {
		return nil, err
	}
	delete(m.recorders, userID)
	return activity, nil
}

// Abandon discards the user's session without producing an Activity.
func (m *Manager) Abandon(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recorders, userID)
}
