package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.QueueOp("enqueue", nil)
	m.QueueOp("skip", errors.New("boom"))
	m.Selection("selected")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		"test_active_sessions 1",
		`test_queue_operations_total{op="enqueue",result="ok"} 1`,
		`test_queue_operations_total{op="skip",result="error"} 1`,
		`test_selection_outcomes_total{outcome="selected"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionOpened()
	m.QueueOp("enqueue", nil)
	m.Notification(errors.New("x"))
	if m.Handler() == nil {
		t.Fatal("Handler() on nil metrics returned nil")
	}
}
