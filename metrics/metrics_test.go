package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMetric(t *testing.T, rec *Recorder, family string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := rec.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue next
				}
			}
			return m
		}
	}
	t.Fatalf("metric %s with labels %v not found", family, labels)
	return nil
}

func TestObserveRender(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveRender("googlecharts", OutcomeSuccess, 200*time.Millisecond)
	rec.ObserveRender("googlecharts", OutcomeSuccess, 100*time.Millisecond)
	rec.ObserveRender("", OutcomeError, time.Millisecond)

	ok := findMetric(t, rec, "qrchart_renders_total", map[string]string{"provider": "googlecharts", "outcome": "success"})
	assert.Equal(t, float64(2), ok.GetCounter().GetValue())

	failed := findMetric(t, rec, "qrchart_renders_total", map[string]string{"provider": "unknown", "outcome": "error"})
	assert.Equal(t, float64(1), failed.GetCounter().GetValue())

	hist := findMetric(t, rec, "qrchart_render_duration_seconds", map[string]string{"provider": "googlecharts"})
	assert.Equal(t, uint64(2), hist.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.3, hist.GetHistogram().GetSampleSum(), 0.001)
}

func TestHandlerServesExposition(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveRender("local", OutcomeSuccess, time.Millisecond)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(w.Result().Body)
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, string(body), `qrchart_renders_total{outcome="success",provider="local"} 1`)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.ObserveRender("x", OutcomeSuccess, time.Second)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 503, w.Code)
}
