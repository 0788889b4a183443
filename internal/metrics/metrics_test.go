package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.FrameProcessed(true)
	m.FrameProcessed(false)
	m.FrameSkipped()
	m.RunFinished("video", "completed", time.Second)

	require.Equal(t, 2.0, testutil.ToFloat64(m.framesProcessed))
	require.Equal(t, 1.0, testutil.ToFloat64(m.alertFrames))
	require.Equal(t, 1.0, testutil.ToFloat64(m.framesSkipped))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("video", "completed")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.FrameProcessed(true)
	m.FrameSkipped()
	m.ObserveDetection(time.Millisecond)
	m.RunFinished("image", "failed", time.Millisecond)
}
