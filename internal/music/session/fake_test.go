package session

import (
	"context"
	"sync"
	"testing"

	"github.com/keshon/jukebox/internal/music/track"
)

type fakeHandle struct {
	mu           sync.Mutex
	started      []uint64
	stops        int
	pauses       int
	resumes      int
	disconnects  int
	panicOnPause bool
	startErr     error

	// disconnecting is closed when Disconnect is entered; Disconnect then
	// blocks until disconnectGate is closed. Both are optional.
	disconnecting  chan struct{}
	disconnectGate chan struct{}
}

func (h *fakeHandle) Start(id uint64, _ track.Source) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.startErr != nil {
		return h.startErr
	}
	h.started = append(h.started, id)
	return nil
}

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
	return nil
}

func (h *fakeHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicOnPause {
		panic("pause exploded")
	}
	h.pauses++
	return nil
}

func (h *fakeHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resumes++
	return nil
}

func (h *fakeHandle) Disconnect() error {
	if h.disconnecting != nil {
		close(h.disconnecting)
	}
	if h.disconnectGate != nil {
		<-h.disconnectGate
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects++
	return nil
}

func (h *fakeHandle) counts() (started []uint64, stops, pauses, resumes, disconnects int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint64(nil), h.started...), h.stops, h.pauses, h.resumes, h.disconnects
}

type fakeTransport struct {
	mu        sync.Mutex
	connects  int
	err       error
	gate      chan struct{}
	// gateGuild limits the gate to one guild when set.
	gateGuild string
	handle    *fakeHandle
}

func (t *fakeTransport) Connect(ctx context.Context, guildID, channelID string, sink EventSink) (CallHandle, error) {
	if t.gate != nil && (t.gateGuild == "" || t.gateGuild == guildID) {
		<-t.gate
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++
	if t.err != nil {
		return nil, t.err
	}
	if t.handle == nil {
		t.handle = &fakeHandle{}
	}
	return t.handle, nil
}

type fakeNotifier struct {
	ch chan track.Queued
}

func (n *fakeNotifier) Notify(_ context.Context, _ string, t track.Queued) {
	n.ch <- t
}

func newTestSession(t testing.TB) (*Registry, *Session, *fakeHandle) {
	tr := &fakeTransport{}
	r := NewRegistry(tr, Options{})
	s, err := r.GetOrCreate(context.Background(), "g1", "voice1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	return r, s, tr.handle
}

func enqueueTitles(t testing.TB, s *Session, titles ...string) {
	for _, title := range titles {
		if _, _, err := s.Enqueue(context.Background(), track.Source{URL: "https://example.com/" + title}, track.Metadata{Title: title}, "text1"); err != nil {
			t.Fatalf("Enqueue(%s) error = %v", title, err)
		}
	}
}

func titles(snap Snapshot) []string {
	out := make([]string, len(snap.Tracks))
	for i, tr := range snap.Tracks {
		out[i] = tr.Metadata.Title
	}
	return out
}

func playingCount(snap Snapshot) int {
	n := 0
	for _, tr := range snap.Tracks {
		if tr.State == track.Playing {
			n++
		}
	}
	return n
}
