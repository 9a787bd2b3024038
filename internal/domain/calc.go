package domain

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371

// DistanceFromSteps converts a step count into kilometres for the given
// activity type. Defined for steps >= 0.
func DistanceFromSteps(steps int, t ActivityType) float64 {
	return float64(steps) * t.DistancePerStep()
}

// Haversine returns the great-circle distance in kilometres between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// RouteDistanceKm sums the great-circle distance along a GPS route. This is a
// derived figure distinct from the step-based DistanceKm and never replaces
// it.
func RouteDistanceKm(route []RoutePoint) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		prev, cur := route[i-1], route[i]
		total += Haversine(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
	}
	return total
}

// KmToMiles converts kilometres to miles.
func KmToMiles(km float64) float64 { return km * 0.621371 }

// MilesToKm converts miles to kilometres.
func MilesToKm(miles float64) float64 { return miles * 1.60934 }

// Pace renders minutes-per-unit pace as "M:SS min/km" (or min/mi). Zero
// distance or duration yields "0:00"; this is a defined edge case, not an
// error.
func Pace(distanceKm float64, durationSeconds int, useMetric bool) string {
	if distanceKm == 0 || durationSeconds == 0 {
		return "0:00"
	}

	distanceInUnits := distanceKm
	unit := "min/km"
	if !useMetric {
		distanceInUnits = KmToMiles(distanceKm)
		unit = "min/mi"
	}

	paceMinutes := (float64(durationSeconds) / 60.0) / distanceInUnits
	minutes := int(paceMinutes)
	seconds := int((paceMinutes - float64(minutes)) * 60)
	return fmt.Sprintf("%d:%02d %s", minutes, seconds, unit)
}

// FormatDuration renders seconds as "H:MM:SS", or "M:SS" when under an hour.
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatDistance renders a distance with unit-appropriate precision.
func FormatDistance(km float64, useMetric bool) string {
	if useMetric {
		if km < 1 {
			return fmt.Sprintf("%.0f m", km*1000)
		}
		return fmt.Sprintf("%.2f km", km)
	}
	miles := KmToMiles(km)
	if miles < 0.1 {
		return fmt.Sprintf("%.0f ft", miles*5280)
	}
	return fmt.Sprintf("%.2f mi", miles)
}

// SpeedKmh returns average speed in km/h, 0 when duration is zero.
func SpeedKmh(distanceKm float64, durationSeconds int) float64 {
	if durationSeconds == 0 {
		return 0
	}
	return distanceKm / (float64(durationSeconds) / 3600.0)
}

// EstimateCalories approximates calories burned from the activity's MET
// value, the user's weight and the duration. The result is truncated.
func EstimateCalories(t ActivityType, durationSeconds int, weightKg float64) int {
	return int(t.MET() * weightKg * (float64(durationSeconds) / 3600.0))
}
