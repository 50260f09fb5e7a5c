package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keshon/jukebox/internal/music/track"
)

func staticOpener(data []byte, opens *atomic.Int32) Opener {
	return func(context.Context, track.Source) (io.ReadCloser, error) {
		opens.Add(1)
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func newCounting() (Encoder, error) { return &countingEncoder{}, nil }

func TestPlaybackReportsStartAndEnd(t *testing.T) {
	var opens atomic.Int32
	out := make(chan []byte, 8)
	started := make(chan struct{}, 1)
	ended := make(chan error, 1)

	p := StartPlayback(staticOpener(pcmFrames(3), &opens), newCounting, track.Source{URL: "x"}, out, Hooks{
		Started: func() { started <- struct{}{} },
		Ended:   func(err error) { ended <- err },
	})

	select {
	case err := <-ended:
		if err != nil {
			t.Fatalf("Ended(%v), want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("playback never ended")
	}
	<-p.Done()
	if len(started) != 1 || len(out) != 3 || opens.Load() != 1 {
		t.Fatalf("started=%d frames=%d opens=%d", len(started), len(out), opens.Load())
	}
}

func TestPlaybackRetriesSilentPipeline(t *testing.T) {
	var opens atomic.Int32
	ended := make(chan error, 1)

	StartPlayback(staticOpener(nil, &opens), newCounting, track.Source{URL: "x"}, make(chan []byte, 1), Hooks{
		Started: func() { t.Error("Started called for a silent pipeline") },
		Ended:   func(err error) { ended <- err },
	})

	select {
	case err := <-ended:
		if !errors.Is(err, ErrNoAudio) {
			t.Fatalf("Ended(%v), want ErrNoAudio", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("playback never ended")
	}
	if opens.Load() != maxRecoveryAttempts {
		t.Fatalf("opens = %d, want %d", opens.Load(), maxRecoveryAttempts)
	}
}

func TestPlaybackStopIsSilent(t *testing.T) {
	pr, pw := io.Pipe()
	open := func(ctx context.Context, _ track.Source) (io.ReadCloser, error) {
		go func() {
			<-ctx.Done()
			_ = pw.CloseWithError(ctx.Err())
		}()
		return pr, nil
	}
	go func() { _, _ = pw.Write(pcmFrames(1)) }()

	out := make(chan []byte, 8)
	started := make(chan struct{}, 1)
	p := StartPlayback(open, newCounting, track.Source{URL: "x"}, out, Hooks{
		Started: func() { started <- struct{}{} },
		Ended:   func(err error) { t.Errorf("Ended(%v) after Stop", err) },
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("playback never started")
	}
	p.Stop()
	p.Stop()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("playback did not exit after Stop")
	}
}

type gatedReader struct {
	gate chan struct{}
	r    io.Reader
}

func (g *gatedReader) Read(b []byte) (int, error) {
	<-g.gate
	return g.r.Read(b)
}

func TestPlaybackStoppedWhileOpeningNeverStarts(t *testing.T) {
	opened := make(chan struct{})
	gate := make(chan struct{})
	open := func(context.Context, track.Source) (io.ReadCloser, error) {
		close(opened)
		return io.NopCloser(&gatedReader{gate: gate, r: bytes.NewReader(pcmFrames(2))}), nil
	}

	p := StartPlayback(open, newCounting, track.Source{URL: "x"}, make(chan []byte, 8), Hooks{
		Started: func() { t.Error("Started called after Stop") },
		Ended:   func(err error) { t.Errorf("Ended(%v) after Stop", err) },
	})
	<-opened
	p.Stop()
	close(gate)

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("playback did not exit after Stop")
	}
}
