package observability

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	counter := metric.GetCounter()
	require.NotNil(t, counter)
	return counter.GetValue()
}

func TestStoreCounters(t *testing.T) {
	savedBefore := counterValue(t, activitiesSaved)
	deletedBefore := counterValue(t, activitiesDeleted)
	failuresBefore := counterValue(t, storeWriteFailures)

	RecordActivitySaved()
	RecordActivitySaved()
	RecordActivityDeleted()
	RecordStoreWriteFailure()

	require.Equal(t, savedBefore+2, counterValue(t, activitiesSaved))
	require.Equal(t, deletedBefore+1, counterValue(t, activitiesDeleted))
	require.Equal(t, failuresBefore+1, counterValue(t, storeWriteFailures))
}

func TestStoreTimeoutsLabelledByOp(t *testing.T) {
	listBefore := counterValue(t, storeTimeouts.WithLabelValues("list"))
	saveBefore := counterValue(t, storeTimeouts.WithLabelValues("save"))

	RecordStoreTimeout("list")
	RecordStoreTimeout("list")
	RecordStoreTimeout("save")

	require.Equal(t, listBefore+2, counterValue(t, storeTimeouts.WithLabelValues("list")))
	require.Equal(t, saveBefore+1, counterValue(t, storeTimeouts.WithLabelValues("save")))
}

func TestRecomputeHistogramSamples(t *testing.T) {
	metric := &dto.Metric{}
	require.NoError(t, recomputeDuration.Write(metric))
	before := metric.GetHistogram().GetSampleCount()

	ObserveRecompute(12 * time.Millisecond)

	metric = &dto.Metric{}
	require.NoError(t, recomputeDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	require.Equal(t, before+1, hist.GetSampleCount())
}

func TestAchievementUnlocksLabelled(t *testing.T) {
	before := counterValue(t, achievementUnlocks.WithLabelValues("FIRST_ACTIVITY"))

	RecordAchievementUnlocked("FIRST_ACTIVITY")

	require.Equal(t, before+1, counterValue(t, achievementUnlocks.WithLabelValues("FIRST_ACTIVITY")))
}
