package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo/pkg/wakeword"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestObserverCounts(t *testing.T) {
	m := newTestMetrics()
	var _ wakeword.Observer = m

	m.Scored("alexa", 0.2, 0.1)
	m.Scored("alexa", 0.4, 0.3)
	m.Scored("hey_jarvis", 0.9, 0.6)
	m.Detected("hey_jarvis", 0.6, 0.9)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesScored.WithLabelValues("alexa")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesScored.WithLabelValues("hey_jarvis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("hey_jarvis")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Detections.WithLabelValues("alexa")))
}

func TestMonitorFeedsMetrics(t *testing.T) {
	m := newTestMetrics()

	scorer := wakeword.ScorerFunc(func(frame []int16) (map[string]float64, error) {
		return map[string]float64{"hey_jarvis": 1.0}, nil
	})
	mon, err := wakeword.New(wakeword.Config{
		Models:         []string{"hey_jarvis"},
		Threshold:      0.5,
		Window:         3,
		PeakMultiplier: 2,
		PeakLookback:   3,
	}, scorer, wakeword.WithObserver(m))
	require.NoError(t, err)

	name, err := mon.Process(make([]int16, wakeword.FrameLength), func() {})
	require.NoError(t, err)
	assert.Equal(t, "hey_jarvis", name)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesScored.WithLabelValues("hey_jarvis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("hey_jarvis")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := newTestMetrics()
	m.Activations.Inc()
	m.Routes.WithLabelValues("chat").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "echo_pipeline_activations_total 1")
	assert.Contains(t, string(body), `echo_pipeline_routes_total{kind="chat"} 1`)
}
