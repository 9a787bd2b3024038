// Package session implements the live activity recording state machine and a
// per-user registry for transport drivers.
package session

import (
	"fmt"

	"example.com/fittrack/internal/domain"
)

// State is the recording lifecycle position.
type State int

const (
	// StateIdle means no recording is in progress.
	StateIdle State = iota
	// StateActive means a recording is accumulating samples.
	StateActive
)

// Recorder owns one in-progress activity. It moves Idle → Active on Start
// and back on Stop, emitting exactly one finalized Activity per Active→Idle
// transition. A Recorder is single-owner state: callers that share one must
// serialize access (Manager does).
type Recorder struct {
	state           State
	userID          string
	activityType    domain.ActivityType
	startedAtMillis int64
	steps           int
	distanceKm      float64
	route           []domain.RoutePoint
}

// NewRecorder returns an idle Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// State reports the current lifecycle position.
func (r *Recorder) State() State { return r.state }

// Start transitions Idle → Active, zeroing all accumulated samples.
func (r *Recorder) Start(userID string, activityType domain.ActivityType, nowMillis int64) error {
	if r.state != StateIdle {
		return fmt.Errorf("start: %w", domain.ErrInvalidState)
	}
	if !activityType.Valid() {
		return fmt.Errorf("start: unknown activity type %q", activityType)
	}

	r.state = StateActive
	r.userID = userID
	r.activityType = activityType
	r.startedAtMillis = nowMillis
	r.steps = 0
	r.distanceKm = 0
	r.route = nil
	return nil
}

// RecordStep adds one step sample and refreshes the live distance. Calling
// while Idle is an error, consistent with the other preconditions.
func (r *Recorder) RecordStep() error {
	if r.state != StateActive {
		return fmt.Errorf("record step: %w", domain.ErrInvalidState)
	}
	r.steps++
	r.distanceKm = domain.DistanceFromSteps(r.steps, r.activityType)
	return nil
}

// RecordRoutePoint appends one GPS sample. Points are never removed.
func (r *Recorder) RecordRoutePoint(lat, lon float64, nowMillis int64) error {
	if r.state != StateActive {
		return fmt.Errorf("record route point: %w", domain.ErrInvalidState)
	}
	r.route = append(r.route, domain.RoutePoint{Latitude: lat, Longitude: lon, TimestampMillis: nowMillis})
	return nil
}

// ElapsedSeconds reports wall-clock seconds since Start. A clock reading
// behind the recorded start clamps to 0, keeping durations non-negative.
func (r *Recorder) ElapsedSeconds(nowMillis int64) (int, error) {
	if r.state != StateActive {
		return 0, fmt.Errorf("elapsed: %w", domain.ErrInvalidState)
	}
	if nowMillis < r.startedAtMillis {
		return 0, nil
	}
	return int((nowMillis - r.startedAtMillis) / 1000), nil
}

// Steps reports the accumulated step count.
func (r *Recorder) Steps() int { return r.steps }

// DistanceKm reports the live step-derived distance.
func (r *Recorder) DistanceKm() float64 { return r.distanceKm }

// Type reports the selected activity type.
func (r *Recorder) Type() domain.ActivityType { return r.activityType }

// LivePace renders the current pace for display.
func (r *Recorder) LivePace(nowMillis int64, useMetric bool) string {
	elapsed, err := r.ElapsedSeconds(nowMillis)
	if err != nil {
		return "0:00"
	}
	return domain.Pace(r.distanceKm, elapsed, useMetric)
}

// Stop finalizes the recording: duration, distance and route freeze, the
// Recorder returns to Idle, and the completed Activity is emitted. The id is
// left unset for the store to assign on save.
func (r *Recorder) Stop(nowMillis int64) (*domain.Activity, error) {
	elapsed, err := r.ElapsedSeconds(nowMillis)
	if err != nil {
		return nil, fmt.Errorf("stop: %w", domain.ErrInvalidState)
	}

	activity := &domain.Activity{
		UserID:          r.userID,
		StartedAtMillis: r.startedAtMillis,
		Date:            domain.CalendarDate(r.startedAtMillis),
		Type:            r.activityType,
		DurationSeconds: elapsed,
		Steps:           r.steps,
		DistanceKm:      r.distanceKm,
		Route:           r.route,
	}

	*r = Recorder{}
	return activity, nil
}
