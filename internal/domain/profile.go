package domain

// Achievement identifiers. Each is a one-way latch: once present in a
// profile's Achievements map it is never removed, even if the underlying
// history changes.
const (
	AchievementFirstActivity    = "FIRST_ACTIVITY"
	AchievementTenKSteps        = "TEN_K_STEPS"
	AchievementHundredKSteps    = "HUNDRED_K_STEPS"
	AchievementSevenDayStreak   = "SEVEN_DAY_STREAK"
	AchievementThirtyDayStreak  = "THIRTY_DAY_STREAK"
	AchievementMarathonDistance = "MARATHON_DISTANCE"
)

// Preferences carries user display and tracking settings. The engine never
// interprets these beyond persisting them unchanged.
type Preferences struct {
	UseMetric     bool    `json:"useMetric"`
	DefaultZoom   int     `json:"defaultZoom"`
	DefaultLat    float64 `json:"defaultLat"`
	DefaultLon    float64 `json:"defaultLon"`
	DailyStepGoal int     `json:"dailyStepGoal"`
	AutoPause     bool    `json:"autoPause"`
	Theme         string  `json:"theme"`
}

// DefaultPreferences returns the settings applied to new profiles.
func DefaultPreferences() Preferences {
	return Preferences{
		UseMetric:     true,
		DefaultZoom:   12,
		DefaultLat:    1.3521,
		DefaultLon:    103.8198,
		DailyStepGoal: 10000,
		AutoPause:     true,
		Theme:         "light",
	}
}

// UserProfile is the materialized view over a user's activity history plus
// preferences. Totals and streaks are a cache recomputed from history, not a
// source of truth.
type UserProfile struct {
	UID             string           `json:"uid"`
	Email           string           `json:"email"`
	DisplayName     string           `json:"displayName,omitempty"`
	WeightKg        float64          `json:"weight"`
	HeightCm        float64          `json:"height"`
	TotalSteps      int              `json:"totalSteps"`
	TotalDistanceKm float64          `json:"totalDistance"`
	TotalActivities int              `json:"totalActivities"`
	CurrentStreak   int              `json:"currentStreak"`
	LongestStreak   int              `json:"longestStreak"`
	MemberSince     int64            `json:"memberSince"`
	Achievements    map[string]int64 `json:"achievements,omitempty"` // id → unlock epoch seconds
	Preferences     Preferences      `json:"preferences"`
}

// NewUserProfile builds a fresh profile with default body metrics and
// preferences.
func NewUserProfile(uid, email string, nowMillis int64) *UserProfile {
	return &UserProfile{
		UID:          uid,
		Email:        email,
		WeightKg:     70.0,
		HeightCm:     170.0,
		MemberSince:  nowMillis,
		Achievements: make(map[string]int64),
		Preferences:  DefaultPreferences(),
	}
}

// HasAchievement reports whether the given achievement is unlocked.
func (p *UserProfile) HasAchievement(id string) bool {
	_, ok := p.Achievements[id]
	return ok
}

// Unlock latches an achievement at the given epoch second. Already unlocked
// achievements keep their original unlock time.
func (p *UserProfile) Unlock(id string, epochSeconds int64) bool {
	if p.Achievements == nil {
		p.Achievements = make(map[string]int64)
	}
	if _, ok := p.Achievements[id]; ok {
		return false
	}
	p.Achievements[id] = epochSeconds
	return true
}

// Clone returns a deep copy so recomputation can produce a new value instead
// of mutating shared state.
func (p *UserProfile) Clone() *UserProfile {
	out := *p
	out.Achievements = make(map[string]int64, len(p.Achievements))
	for id, at := range p.Achievements {
		out.Achievements[id] = at
	}
	return &out
}

// Normalize fills defaulted fields on profiles loaded from sparse documents.
func (p *UserProfile) Normalize() {
	if p.WeightKg == 0 {
		p.WeightKg = 70.0
	}
	if p.HeightCm == 0 {
		p.HeightCm = 170.0
	}
	if p.Achievements == nil {
		p.Achievements = make(map[string]int64)
	}
	if p.Preferences == (Preferences{}) {
		p.Preferences = DefaultPreferences()
	}
}
