package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnlockIsOneWay(t *testing.T) {
	profile := NewUserProfile("u1", "u1@example.com", 1000)

	require.True(t, profile.Unlock(AchievementFirstActivity, 42))
	require.True(t, profile.HasAchievement(AchievementFirstActivity))

	// A second unlock keeps the original stamp.
	require.False(t, profile.Unlock(AchievementFirstActivity, 99))
	require.Equal(t, int64(42), profile.Achievements[AchievementFirstActivity])
}

func TestCloneIsDeep(t *testing.T) {
	profile := NewUserProfile("u1", "u1@example.com", 1000)
	profile.Unlock(AchievementTenKSteps, 7)

	clone := profile.Clone()
	clone.TotalSteps = 500
	clone.Unlock(AchievementFirstActivity, 8)

	require.Zero(t, profile.TotalSteps)
	require.False(t, profile.HasAchievement(AchievementFirstActivity))
	require.True(t, clone.HasAchievement(AchievementTenKSteps))
}

func TestNormalizeFillsDefaults(t *testing.T) {
	profile := &UserProfile{UID: "u1"}
	profile.Normalize()

	require.Equal(t, 70.0, profile.WeightKg)
	require.Equal(t, 170.0, profile.HeightCm)
	require.NotNil(t, profile.Achievements)
	require.Equal(t, DefaultPreferences(), profile.Preferences)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	prefs := Preferences{UseMetric: false, DefaultZoom: 9, DailyStepGoal: 5000, Theme: "dark"}
	profile := &UserProfile{UID: "u1", WeightKg: 82, Preferences: prefs}
	profile.Normalize()

	require.Equal(t, 82.0, profile.WeightKg)
	require.Equal(t, prefs, profile.Preferences)
}
