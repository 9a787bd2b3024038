// Package domain defines the core model and business rules for the tracker.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidState signals a recording-session call in the wrong state.
	ErrInvalidState = errors.New("recording session is in the wrong state")
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrProfileNotFound is returned when a user has no stored profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrStoreTimeout signals that the store did not answer within the wait bound.
	ErrStoreTimeout = errors.New("store did not respond within the wait bound")
	// ErrStoreWrite signals that the store rejected a write.
	ErrStoreWrite = errors.New("store rejected the write")
	// ErrStatsRecompute marks a failure that happened after the activity was
	// already persisted: the save stood, only the derived statistics are
	// stale. Callers must not treat it as a failed save.
	ErrStatsRecompute = errors.New("stats recompute failed after save")
)

// ActivityType enumerates the supported workout kinds.
type ActivityType string

const (
	TypeWalk  ActivityType = "WALK"
	TypeRun   ActivityType = "RUN"
	TypeCycle ActivityType = "CYCLE"
	TypeHike  ActivityType = "HIKE"
)

type typeProfile struct {
	displayName     string
	icon            string
	distancePerStep float64 // km advanced by one step
	met             float64 // metabolic equivalent for calorie estimates
}

var typeProfiles = map[ActivityType]typeProfile{
	TypeWalk:  {displayName: "Walk", icon: "🚶", distancePerStep: 0.0008, met: 3.5},
	TypeRun:   {displayName: "Run", icon: "🏃", distancePerStep: 0.0012, met: 9.8},
	TypeCycle: {displayName: "Cycle", icon: "🚴", distancePerStep: 0.015, met: 7.5},
	TypeHike:  {displayName: "Hike", icon: "🥾", distancePerStep: 0.0009, met: 6.0},
}

// ParseActivityType maps a wire value onto an ActivityType.
func ParseActivityType(raw string) (ActivityType, error) {
	t := ActivityType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown activity type %q", raw)
	}
	return t, nil
}

// Valid reports whether the type is one of the known kinds.
func (t ActivityType) Valid() bool {
	_, ok := typeProfiles[t]
	return ok
}

// DisplayName returns the human-readable label for the type.
func (t ActivityType) DisplayName() string { return typeProfiles[t].displayName }

// Icon returns the display glyph for the type.
func (t ActivityType) Icon() string { return typeProfiles[t].icon }

// DistancePerStep returns the kilometres covered by a single step.
func (t ActivityType) DistancePerStep() float64 { return typeProfiles[t].distancePerStep }

// MET returns the metabolic equivalent used for calorie estimates.
func (t ActivityType) MET() float64 { return typeProfiles[t].met }

// RoutePoint is a single GPS sample captured during a recording session.
type RoutePoint struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	TimestampMillis int64   `json:"timestamp"`
}

// Activity is one completed recording session. The ID is assigned by the
// store on first save and stable afterwards; Notes is the only field that
// may change once the record is persisted.
type Activity struct {
	ID              string       `json:"activityId,omitempty"`
	UserID          string       `json:"userId"`
	StartedAtMillis int64        `json:"timestamp"`
	Date            string       `json:"date"`
	Type            ActivityType `json:"type"`
	DurationSeconds int          `json:"duration"`
	Steps           int          `json:"steps"`
	DistanceKm      float64      `json:"distance"`
	Route           []RoutePoint `json:"route,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

const calendarDateLayout = "2006-01-02"

// CalendarDate renders the local calendar day of an epoch-millisecond stamp.
func CalendarDate(millis int64) string {
	return time.UnixMilli(millis).In(time.Local).Format(calendarDateLayout)
}
