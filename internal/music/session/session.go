package session

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/keshon/jukebox/internal/music/track"
	"github.com/keshon/jukebox/internal/observability"
)

// Session is the voice session of a single guild: one call handle and one
// queue, both guarded by a FIFO mutex.
type Session struct {
	guildID   string
	channelID string
	createdAt time.Time

	// sem is a one-slot semaphore. Blocked senders are served in arrival
	// order, which gives commands FIFO access to the queue.
	sem chan struct{}

	// removed is set under sem and read without it by the registry.
	removed atomic.Bool
	closed  bool

	handle      CallHandle
	queue       []*track.Queued
	paused      bool
	nextID      func() uint64
	announcedID uint64

	notifier      Notifier
	notifyTimeout time.Duration
	metrics       *observability.Metrics
	onAbort       func()
}

func newSession(guildID, channelID string, handle CallHandle, r *Registry) *Session {
	s := &Session{
		guildID:       guildID,
		channelID:     channelID,
		createdAt:     time.Now(),
		sem:           make(chan struct{}, 1),
		handle:        handle,
		nextID:        func() uint64 { return r.trackIDs.Add(1) },
		notifier:      r.notifier,
		notifyTimeout: r.notifyTimeout,
		metrics:       r.metrics,
	}
	s.onAbort = func() { go r.remove(guildID, s) }
	return s
}

// GuildID returns the guild the session belongs to.
func (s *Session) GuildID() string { return s.guildID }

// ChannelID returns the voice channel the session joined.
func (s *Session) ChannelID() string { return s.channelID }

// Removed reports whether the session has been torn down.
func (s *Session) Removed() bool { return s.removed.Load() }

func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() { <-s.sem }

// lock acquires the session mutex and fails if the session is gone.
func (s *Session) lock(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	if s.removed.Load() {
		s.release()
		return ErrNoActiveSession
	}
	return nil
}

// do runs fn under the session mutex. A panic in fn aborts the session.
func (s *Session) do(ctx context.Context, op string, fn func() error) (err error) {
	if err := s.lock(ctx); err != nil {
		s.metrics.QueueOp(op, err)
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] [Session] guild %s: %s panicked: %v\n%s", s.guildID, op, r, debug.Stack())
			s.abortLocked()
			err = fmt.Errorf("%w: %s: %v", ErrSessionAborted, op, r)
		}
		s.release()
		s.metrics.QueueOp(op, err)
	}()
	return fn()
}

// abortLocked marks the session removed and asks the registry to tear it down.
func (s *Session) abortLocked() {
	s.removed.Store(true)
	if len(s.queue) > 0 {
		func() {
			defer func() { _ = recover() }()
			_ = s.handle.Stop()
		}()
	}
	s.stopAllLocked()
	if s.onAbort != nil {
		s.onAbort()
	}
}

func (s *Session) stopAllLocked() {
	for _, t := range s.queue {
		t.State = track.Stopped
	}
	s.queue = nil
	s.paused = false
}

// close transitions the session to removed and releases the call handle.
// It waits for any in-flight operation to finish first and reports whether
// this call did the teardown.
func (s *Session) close() bool {
	_ = s.acquire(context.Background())
	defer s.release()

	if s.closed {
		return false
	}
	s.closed = true
	s.removed.Store(true)

	hadTrack := len(s.queue) > 0
	s.stopAllLocked()
	if hadTrack {
		if err := s.handle.Stop(); err != nil {
			log.Printf("[WARN] [Session] guild %s: stop on close: %v", s.guildID, err)
		}
	}
	if err := s.handle.Disconnect(); err != nil {
		log.Printf("[WARN] [Session] guild %s: disconnect: %v", s.guildID, err)
	}
	return true
}

// startHeadLocked marks index 0 as Playing and starts it. Tracks the handle
// refuses to start are dropped.
func (s *Session) startHeadLocked() {
	s.paused = false
	for len(s.queue) > 0 {
		head := s.queue[0]
		head.State = track.Playing
		err := s.handle.Start(head.ID, head.Source)
		if err == nil {
			log.Printf("[Session] guild %s: playing #%d %q", s.guildID, head.ID, head.Metadata.Title)
			return
		}
		log.Printf("[ERR] [Session] guild %s: failed to start %q: %v", s.guildID, head.Metadata.Title, err)
		head.State = track.Stopped
		s.queue = s.queue[1:]
	}
}

func (s *Session) trackStarted(trackID uint64) {
	_ = s.do(context.Background(), "event_started", func() error {
		if len(s.queue) == 0 || s.queue[0].ID != trackID {
			return nil
		}
		if s.announcedID == trackID {
			return nil
		}
		s.announcedID = trackID
		s.notifyAsync(*s.queue[0])
		return nil
	})
}

func (s *Session) trackEnded(trackID uint64, cause error) {
	_ = s.do(context.Background(), "event_ended", func() error {
		if len(s.queue) == 0 || s.queue[0].ID != trackID {
			return nil
		}
		if cause != nil {
			log.Printf("[WARN] [Session] guild %s: track %q ended with error: %v", s.guildID, s.queue[0].Metadata.Title, cause)
		}
		s.queue[0].State = track.Stopped
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.startHeadLocked()
		return nil
	})
}

func (s *Session) notifyAsync(t track.Queued) {
	if s.notifier == nil {
		return
	}
	timeout := s.notifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.notifier.Notify(ctx, s.guildID, t)
	}()
}
