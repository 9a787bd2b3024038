// Package export renders a user's activity history for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"example.com/fittrack/internal/domain"
)

var csvHeader = []string{"Date", "Type", "Duration (seconds)", "Steps", "Distance (km)", "Pace", "Calories"}

// CSV writes the history as comma-separated rows under a header line.
// Calories are estimated against the given body weight.
func CSV(w io.Writer, activities []domain.Activity, weightKg float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, activity := range activities {
		pace := "0"
		if activity.DurationSeconds > 0 && activity.DistanceKm > 0 {
			pace = fmt.Sprintf("%.2f", float64(activity.DurationSeconds)/60.0/activity.DistanceKm)
		}
		record := []string{
			activity.Date,
			activity.Type.DisplayName(),
			strconv.Itoa(activity.DurationSeconds),
			strconv.Itoa(activity.Steps),
			fmt.Sprintf("%.2f", activity.DistanceKm),
			pace,
			strconv.Itoa(domain.EstimateCalories(activity.Type, activity.DurationSeconds, weightKg)),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record %s: %w", activity.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

type jsonRecord struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	Type            string  `json:"type"`
	DurationSeconds int     `json:"duration"`
	Steps           int     `json:"steps"`
	DistanceKm      float64 `json:"distance"`
	Calories        int     `json:"calories"`
}

type jsonDocument struct {
	Activities []jsonRecord `json:"activities"`
}

// JSON writes the history as an indented JSON document.
func JSON(w io.Writer, activities []domain.Activity, weightKg float64) error {
	doc := jsonDocument{Activities: make([]jsonRecord, 0, len(activities))}
	for _, activity := range activities {
		doc.Activities = append(doc.Activities, jsonRecord{
			ID:              activity.ID,
			Date:            activity.Date,
			Type:            activity.Type.DisplayName(),
			DurationSeconds: activity.DurationSeconds,
			Steps:           activity.Steps,
			DistanceKm:      activity.DistanceKm,
			Calories:        domain.EstimateCalories(activity.Type, activity.DurationSeconds, weightKg),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
