package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	snapshot goLogin.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goLogin.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func emptySnapshot() goLogin.MetricsSnapshot {
	return goLogin.MetricsSnapshot{
		Counters:   map[goLogin.MetricID]uint64{},
		Histograms: map[goLogin.MetricID][]uint64{},
	}
}

func TestRenderEmptyWhenDisabled(t *testing.T) {
	exp := NewExporter(fakeSource{snapshot: emptySnapshot()})
	assert.Empty(t, exp.Render())

	var nilExp *Exporter
	assert.Empty(t, nilExp.Render())
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := NewExporter(fakeSource{
		snapshot: goLogin.MetricsSnapshot{
			Counters: map[goLogin.MetricID]uint64{
				goLogin.MetricLoginSuccess:       7,
				goLogin.MetricRevocationDetected: 1,
			},
			Histograms: map[goLogin.MetricID][]uint64{
				goLogin.MetricFlowLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	assert.Contains(t, out, "# TYPE gologin_login_success_total counter\n")
	assert.Contains(t, out, "gologin_login_success_total 7\n")
	assert.Contains(t, out, "gologin_revocation_detected_total 1\n")
	assert.Contains(t, out, "gologin_logout_total 0\n")
	assert.Contains(t, out, `gologin_flow_latency_seconds_bucket{le="0.01"} 1`)
	assert.Contains(t, out, `gologin_flow_latency_seconds_bucket{le="0.1"} 6`)
	assert.Contains(t, out, `gologin_flow_latency_seconds_bucket{le="+Inf"} 36`)
	assert.Contains(t, out, "gologin_flow_latency_seconds_count 36\n")
	assert.Contains(t, out, "gologin_audit_dropped_total 2\n")
}

func TestRenderDroppedOnly(t *testing.T) {
	exp := NewExporter(fakeSource{snapshot: emptySnapshot(), dropped: 3})
	assert.Contains(t, exp.Render(), "gologin_audit_dropped_total 3")
}

func TestHandlerContentType(t *testing.T) {
	exp := NewExporter(fakeSource{snapshot: goLogin.MetricsSnapshot{
		Counters:   map[goLogin.MetricID]uint64{goLogin.MetricLoginSuccess: 1},
		Histograms: map[goLogin.MetricID][]uint64{},
	}})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "gologin_login_success_total 1")
}

func TestEscapeHelp(t *testing.T) {
	assert.Equal(t, `a\\b\nc`, escapeHelp("a\\b\nc"))
}
