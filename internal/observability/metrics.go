package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activitiesSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "store",
		Name:      "activities_saved_total",
		Help:      "Count of first-time activity saves.",
	})
	activitiesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "store",
		Name:      "activities_deleted_total",
		Help:      "Count of activity deletions.",
	})
	storeTimeouts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "store",
		Name:      "timeouts_total",
		Help:      "Count of store calls that exceeded the bounded wait.",
	}, []string{"op"})
	storeWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "store",
		Name:      "write_failures_total",
		Help:      "Count of writes rejected by the backing store.",
	})
	recomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fittrack",
		Subsystem: "stats",
		Name:      "recompute_duration_seconds",
		Help:      "Latency of stats recomputation runs.",
		Buckets:   prometheus.DefBuckets,
	})
	achievementUnlocks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "stats",
		Name:      "achievement_unlocks_total",
		Help:      "Count of achievement unlocks by achievement id.",
	}, []string{"achievement"})
)

func init() {
	prometheus.MustRegister(
		activitiesSaved,
		activitiesDeleted,
		storeTimeouts,
		storeWriteFailures,
		recomputeDuration,
		achievementUnlocks,
	)
}

// RecordActivitySaved counts a first-time activity save.
func RecordActivitySaved() { activitiesSaved.Inc() }

// RecordActivityDeleted counts an activity deletion.
func RecordActivityDeleted() { activitiesDeleted.Inc() }

// RecordStoreTimeout counts a bounded-wait expiry for the given operation.
func RecordStoreTimeout(op string) { storeTimeouts.WithLabelValues(op).Inc() }

// RecordStoreWriteFailure counts a rejected write.
func RecordStoreWriteFailure() { storeWriteFailures.Inc() }

// ObserveRecompute records the latency of one recomputation run.
func ObserveRecompute(d time.Duration) { recomputeDuration.Observe(d.Seconds()) }

// RecordAchievementUnlocked counts a new achievement unlock.
func RecordAchievementUnlocked(id string) { achievementUnlocks.WithLabelValues(id).Inc() }
