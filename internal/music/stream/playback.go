package stream

import (
	"context"
	"io"
	"sync"

	"github.com/keshon/jukebox/internal/music/track"
)

// Opener starts producing 48kHz stereo s16le PCM for src.
type Opener func(ctx context.Context, src track.Source) (io.ReadCloser, error)

// PipeOpener opens sources through yt-dlp and ffmpeg.
func PipeOpener(proxy string) Opener {
	return func(ctx context.Context, src track.Source) (io.ReadCloser, error) {
		return Open(ctx, src, proxy)
	}
}

// Hooks are told when audio starts flowing and when the track is over.
// Ended is not called when the playback was stopped.
type Hooks struct {
	Started func()
	Ended   func(err error)
}

// Playback streams one track as opus packets.
type Playback struct {
	gate   *Gate
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartPlayback streams src to out on its own goroutine.
func StartPlayback(open Opener, newEncoder func() (Encoder, error), src track.Source, out chan<- []byte, hooks Hooks) *Playback {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Playback{gate: NewGate(), cancel: cancel, done: make(chan struct{})}
	go p.run(ctx, open, newEncoder, src, out, hooks)
	return p
}

func (p *Playback) run(ctx context.Context, open Opener, newEncoder func() (Encoder, error), src track.Source, out chan<- []byte, hooks Hooks) {
	defer close(p.done)

	ended := func(err error) {
		if ctx.Err() == nil && hooks.Ended != nil {
			hooks.Ended(err)
		}
	}

	enc, err := newEncoder()
	if err != nil {
		ended(err)
		return
	}
	pcm, err := openRecovering(ctx, open, src)
	if err != nil {
		ended(err)
		return
	}
	defer pcm.Close()

	// A Stop that lands while the pipeline opens must not announce the track.
	if ctx.Err() != nil {
		return
	}
	if hooks.Started != nil {
		hooks.Started()
	}
	ended(Frames(ctx, pcm, enc, p.gate, out))
}

// Stop ends the playback without reporting it as ended.
func (p *Playback) Stop() {
	p.once.Do(p.cancel)
}

func (p *Playback) Pause()  { p.gate.Pause() }
func (p *Playback) Resume() { p.gate.Resume() }

// Done is closed once the playback goroutine has exited.
func (p *Playback) Done() <-chan struct{} { return p.done }
