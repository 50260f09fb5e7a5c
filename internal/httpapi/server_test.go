package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/music/track"
	"github.com/keshon/jukebox/internal/observability"
)

type nopHandle struct{}

func (nopHandle) Start(uint64, track.Source) error { return nil }
func (nopHandle) Stop() error                      { return nil }
func (nopHandle) Pause() error                     { return nil }
func (nopHandle) Resume() error                    { return nil }
func (nopHandle) Disconnect() error                { return nil }

type nopTransport struct{}

func (nopTransport) Connect(context.Context, string, string, session.EventSink) (session.CallHandle, error) {
	return nopHandle{}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *session.Registry) {
	t.Helper()
	m := observability.NewMetrics("test", prometheus.NewRegistry())
	reg := session.NewRegistry(nopTransport{}, session.Options{Metrics: m})
	ts := httptest.NewServer(New(reg, m).Router())
	t.Cleanup(ts.Close)
	return ts, reg
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return res.StatusCode
}

func TestHealthAndMetrics(t *testing.T) {
	ts, reg := newTestServer(t)
	if _, err := reg.GetOrCreate(context.Background(), "g1", "v1"); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	var health map[string]any
	if code := getJSON(t, ts.URL+"/healthz", &health); code != http.StatusOK {
		t.Fatalf("healthz status = %d", code)
	}
	if health["status"] != "ok" || health["sessions"] != float64(1) {
		t.Fatalf("healthz = %+v", health)
	}

	res, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer res.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, res.Body)
	if !strings.Contains(buf.String(), "test_active_sessions 1") {
		t.Fatalf("metrics missing active sessions gauge:\n%s", buf.String())
	}
}

func TestQueueView(t *testing.T) {
	ts, reg := newTestServer(t)

	var errResp errorResponse
	if code := getJSON(t, ts.URL+"/v1/guilds/g1/queue", &errResp); code != http.StatusNotFound || errResp.Code != "session_not_found" {
		t.Fatalf("no session: %d %+v", code, errResp)
	}

	s, err := reg.GetOrCreate(context.Background(), "g1", "v1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if code := getJSON(t, ts.URL+"/v1/guilds/g1/queue", &errResp); code != http.StatusNotFound || errResp.Code != "empty_queue" {
		t.Fatalf("empty queue: %d %+v", code, errResp)
	}

	for i := range 12 {
		md := track.Metadata{Title: "song " + string(rune('A'+i)), Duration: 90 * time.Second, RequestedBy: "alice"}
		if _, _, err := s.Enqueue(context.Background(), track.Source{URL: "https://example.com/" + string(rune('a'+i))}, md, "t1"); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	var q queueResponse
	if code := getJSON(t, ts.URL+"/v1/guilds/g1/queue", &q); code != http.StatusOK {
		t.Fatalf("page 1 status = %d", code)
	}
	if q.Total != 12 || len(q.Tracks) != session.PageSize || q.Tracks[0].State != track.Playing.String() || q.Tracks[0].DurationSeconds != 90 {
		t.Fatalf("page 1 = %+v", q)
	}

	if code := getJSON(t, ts.URL+"/v1/guilds/g1/queue?page=2", &q); code != http.StatusOK || len(q.Tracks) != 2 || q.Tracks[1].Position != 12 {
		t.Fatalf("page 2 = %d %+v", code, q)
	}
	if err := s.Pause(context.Background()); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if code := getJSON(t, ts.URL+"/v1/guilds/g1/queue?page=2", &q); code != http.StatusOK || !q.Paused || q.Total != 12 {
		t.Fatalf("paused page 2 = %d %+v", code, q)
	}
	q = queueResponse{}
	if code := getJSON(t, ts.URL+"/v1/guilds/g1/queue?page=9", &q); code != http.StatusOK || len(q.Tracks) != 0 {
		t.Fatalf("page 9 = %d %+v", code, q)
	}
	if code := getJSON(t, ts.URL+"/v1/guilds/g1/queue?page=zero", &errResp); code != http.StatusBadRequest {
		t.Fatalf("bad page status = %d", code)
	}
}
