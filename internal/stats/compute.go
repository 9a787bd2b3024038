// Package stats recomputes the derived statistics on a user profile: running
// totals, day streaks and achievement latches. The computation functions are
// pure; Aggregator wires them to the stores with per-user serialization.
package stats

import (
	"time"

	"example.com/fittrack/internal/domain"
)

const calendarDateLayout = "2006-01-02"

var achievementChecks = []struct {
	id  string
	met func(p *domain.UserProfile) bool
}{
	{domain.AchievementFirstActivity, func(p *domain.UserProfile) bool { return p.TotalActivities == 1 }},
	{domain.AchievementTenKSteps, func(p *domain.UserProfile) bool { return p.TotalSteps >= 10000 }},
	{domain.AchievementHundredKSteps, func(p *domain.UserProfile) bool { return p.TotalSteps >= 100000 }},
	{domain.AchievementSevenDayStreak, func(p *domain.UserProfile) bool { return p.CurrentStreak >= 7 }},
	{domain.AchievementThirtyDayStreak, func(p *domain.UserProfile) bool { return p.CurrentStreak >= 30 }},
	{domain.AchievementMarathonDistance, func(p *domain.UserProfile) bool { return p.TotalDistanceKm >= 42.195 }},
}

// CurrentStreak counts consecutive calendar days with at least one activity,
// walking back from today. The run must include every day from today
// backward with no gaps; a day with no activity stops the count, so a history
// without an activity today yields 0.
func CurrentStreak(history []domain.Activity, today time.Time) int {
	if len(history) == 0 {
		return 0
	}

	dates := make(map[string]struct{}, len(history))
	for _, activity := range history {
		dates[domain.CalendarDate(activity.StartedAtMillis)] = struct{}{}
	}

	streak := 0
	day := today.In(time.Local)
	for {
		if _, ok := dates[day.Format(calendarDateLayout)]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// ApplyActivity folds one newly saved activity into the profile: totals are
// incremented by the new record's contribution while streaks are re-derived
// from the full history, which must already include the new record. The
// input profile is not mutated.
func ApplyActivity(profile *domain.UserProfile, activity domain.Activity, history []domain.Activity, now time.Time) *domain.UserProfile {
	updated := profile.Clone()
	updated.TotalSteps += activity.Steps
	updated.TotalDistanceKm += activity.DistanceKm
	updated.TotalActivities++

	finishStats(updated, history, now)
	return updated
}

// Rebuild re-derives every cached statistic from scratch. Totals are
// re-summed over the history; achievements already present are preserved
// because they are one-way latches. ApplyActivity over a save sequence and
// Rebuild over the final history converge to the same totals.
func Rebuild(profile *domain.UserProfile, history []domain.Activity, now time.Time) *domain.UserProfile {
	updated := profile.Clone()
	updated.TotalSteps = 0
	updated.TotalDistanceKm = 0
	updated.TotalActivities = len(history)
	for _, activity := range history {
		updated.TotalSteps += activity.Steps
		updated.TotalDistanceKm += activity.DistanceKm
	}

	finishStats(updated, history, now)
	return updated
}

// finishStats derives streaks from the history and latches achievements in
// their fixed evaluation order.
func finishStats(profile *domain.UserProfile, history []domain.Activity, now time.Time) {
	profile.CurrentStreak = CurrentStreak(history, now)
	if profile.CurrentStreak > profile.LongestStreak {
		profile.LongestStreak = profile.CurrentStreak
	}

	for _, check := range achievementChecks {
		if check.met(profile) {
			profile.Unlock(check.id, now.Unix())
		}
	}
}
