package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveCompileDuration(1500 * time.Millisecond)
	pr.ObservePassDuration(1, 700*time.Millisecond)
	pr.ObservePassDuration(2, 650*time.Millisecond)
	pr.IncCompileOutcome(OutcomeSuccess, "")
	pr.IncCompileOutcome(OutcomeFailure, "compilation")
	pr.IncCompileOutcome(OutcomeFailure, "compilation")
	pr.ObserveArtifactBytes(20_000)
	pr.AddInFlight(1)
	pr.AddInFlight(-1)
	pr.AddWorkspacesSwept(3)
	pr.AddWorkspacesSwept(0)
	pr.IncEventPublishFailure()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]*dto.MetricFamily{}
	for _, mf := range mfs {
		byName[mf.GetName()] = mf
	}

	outcomes := byName["latexd_compile_outcomes_total"]
	require.NotNil(t, outcomes)
	var failures float64
	for _, m := range outcomes.GetMetric() {
		if labelValue(m, "outcome") == "failure" && labelValue(m, "category") == "compilation" {
			failures = m.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 2, failures, 0)

	require.NotNil(t, byName["latexd_compilations_in_flight"])
	assert.InDelta(t, 0, byName["latexd_compilations_in_flight"].GetMetric()[0].GetGauge().GetValue(), 0)
	require.NotNil(t, byName["latexd_workspaces_swept_total"])
	assert.InDelta(t, 3, byName["latexd_workspaces_swept_total"].GetMetric()[0].GetCounter().GetValue(), 0)
	require.NotNil(t, byName["latexd_pass_duration_seconds"])
	assert.Len(t, byName["latexd_pass_duration_seconds"].GetMetric(), 2)
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveCompileDuration(time.Second)
	pr.IncCompileOutcome(OutcomeError, "internal")
	pr.AddInFlight(1)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).IncCompileOutcome(OutcomeSuccess, "")

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "latexd_compile_outcomes_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
