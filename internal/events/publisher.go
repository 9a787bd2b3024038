// Package events publishes integration events emitted after successful
// first-time activity saves.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"example.com/fittrack/internal/domain"
)

// TopicActivitySaved carries one message per newly persisted activity.
const TopicActivitySaved = "fittrack.activity.saved"

// ActivitySavedEvent is the wire payload for TopicActivitySaved.
type ActivitySavedEvent struct {
	ActivityID      string  `json:"activity_id"`
	UserID          string  `json:"user_id"`
	ActivityType    string  `json:"activity_type"`
	StartedAtMillis int64   `json:"started_at_millis"`
	DurationSeconds int     `json:"duration_seconds"`
	Steps           int     `json:"steps"`
	DistanceKm      float64 `json:"distance_km"`
}

// Kafka publishes activity events to a Kafka topic, keyed by user so a
// user's events stay ordered within a partition.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka constructs a publisher for the given brokers.
func NewKafka(brokers []string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        TopicActivitySaved,
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

// ActivitySaved publishes one event for a newly saved activity.
func (k *Kafka) ActivitySaved(ctx context.Context, activity domain.Activity) error {
	payload, err := json.Marshal(newActivitySavedEvent(activity))
	if err != nil {
		return fmt.Errorf("encode activity.saved: %w", err)
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(activity.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("activity.saved")},
		},
	})
}

// Close releases the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

func newActivitySavedEvent(activity domain.Activity) ActivitySavedEvent {
	return ActivitySavedEvent{
		ActivityID:      activity.ID,
		UserID:          activity.UserID,
		ActivityType:    string(activity.Type),
		StartedAtMillis: activity.StartedAtMillis,
		DurationSeconds: activity.DurationSeconds,
		Steps:           activity.Steps,
		DistanceKm:      activity.DistanceKm,
	}
}

// Noop satisfies domain.EventPublisher when no brokers are configured.
type Noop struct{}

// ActivitySaved discards the event.
func (Noop) ActivitySaved(context.Context, domain.Activity) error { return nil }
