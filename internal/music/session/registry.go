// Package session keeps one voice session per guild and serializes every
// queue and call-handle operation on it.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/keshon/jukebox/internal/observability"
)

const (
	defaultConnectTimeout = 20 * time.Second
	closeWorkers          = 4
)

// Options tune a Registry. The zero value is usable.
type Options struct {
	Notifier       Notifier
	NotifyTimeout  time.Duration
	ConnectTimeout time.Duration
	Metrics        *observability.Metrics
}

// Registry maps guild ids to live sessions. It is also the EventSink handed
// to every call handle.
//
// A guild whose session is being torn down stays in closing until the handle
// is released; no new session is created for it in the meantime.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closing  map[string]chan struct{}
	connects singleflight.Group

	// trackIDs is shared by all sessions, so an event from a previous
	// session's handle never matches a track of the current one.
	trackIDs atomic.Uint64

	transport      Transport
	notifier       Notifier
	notifyTimeout  time.Duration
	connectTimeout time.Duration
	metrics        *observability.Metrics
}

func NewRegistry(t Transport, opts Options) *Registry {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	return &Registry{
		sessions:       make(map[string]*Session),
		closing:        make(map[string]chan struct{}),
		transport:      t,
		notifier:       opts.Notifier,
		notifyTimeout:  opts.NotifyTimeout,
		connectTimeout: opts.ConnectTimeout,
		metrics:        opts.Metrics,
	}
}

// Get returns the live session of a guild without creating one.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, closing := r.closing[guildID]; closing {
		return nil, false
	}
	s, ok := r.sessions[guildID]
	if !ok || s.Removed() {
		return nil, false
	}
	return s, true
}

// Lookup is Get for callers that want an error.
func (r *Registry) Lookup(guildID string) (*Session, error) {
	s, ok := r.Get(guildID)
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

// GetOrCreate returns the guild's session, joining channelID if there is none.
// Concurrent callers for one guild share a single connect attempt; callers
// for other guilds are never blocked by it.
func (r *Registry) GetOrCreate(ctx context.Context, guildID, channelID string) (*Session, error) {
	if s, ok := r.Get(guildID); ok {
		return s, nil
	}
	if channelID == "" {
		return nil, ErrNotInVoiceChannel
	}

	ch := r.connects.DoChan(guildID, func() (any, error) {
		if s, err := r.settle(ctx, guildID); s != nil || err != nil {
			return s, err
		}
		// The connect is shared, so it must outlive the first caller's ctx.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.connectTimeout)
		defer cancel()

		handle, err := r.transport.Connect(cctx, guildID, channelID, r)
		if err != nil {
			log.Printf("[ERR] [Registry] guild %s: connect to %s failed: %v", guildID, channelID, err)
			return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
		}

		s := newSession(guildID, channelID, handle, r)
		r.mu.Lock()
		r.sessions[guildID] = s
		r.mu.Unlock()
		r.metrics.SessionOpened()
		log.Printf("[Registry] guild %s: session created in channel %s", guildID, channelID)
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle runs before a connect. It returns the live session if one appeared,
// waits out a teardown in progress and finishes the teardown of an aborted
// session, so the new handle never overlaps the old one.
func (r *Registry) settle(ctx context.Context, guildID string) (*Session, error) {
	for {
		r.mu.RLock()
		s, exists := r.sessions[guildID]
		done, closing := r.closing[guildID]
		r.mu.RUnlock()

		switch {
		case closing:
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		case exists && !s.Removed():
			return s, nil
		case exists:
			r.remove(guildID, s)
		default:
			return nil, nil
		}
	}
}

// Remove tears the guild's session down and deregisters it. It reports
// whether this call removed a session; removing a guild without one is a
// no-op. A Remove racing another waits for that teardown to finish.
func (r *Registry) Remove(guildID string) bool {
	return r.remove(guildID, nil)
}

// remove deregisters guildID's session. When want is set only that session
// is removed.
func (r *Registry) remove(guildID string, want *Session) bool {
	r.mu.Lock()
	if done, ok := r.closing[guildID]; ok {
		r.mu.Unlock()
		<-done
		return false
	}
	s, ok := r.sessions[guildID]
	if !ok || (want != nil && s != want) {
		r.mu.Unlock()
		return false
	}
	done := make(chan struct{})
	r.closing[guildID] = done
	r.mu.Unlock()

	closed := s.close()

	r.mu.Lock()
	delete(r.sessions, guildID)
	delete(r.closing, guildID)
	r.mu.Unlock()
	close(done)

	if closed {
		r.metrics.SessionClosed()
	}
	log.Printf("[Registry] guild %s: session removed", guildID)
	return true
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close removes every session. It stops early if ctx is done.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(closeWorkers)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.Remove(id)
			return nil
		})
	}
	return g.Wait()
}

func (r *Registry) TrackStarted(guildID string, trackID uint64) {
	if s, ok := r.Get(guildID); ok {
		s.trackStarted(trackID)
	}
}

func (r *Registry) TrackEnded(guildID string, trackID uint64, err error) {
	if s, ok := r.Get(guildID); ok {
		s.trackEnded(trackID, err)
	}
}

func (r *Registry) Disconnected(guildID string) {
	if r.Remove(guildID) {
		log.Printf("[INFO] [Registry] guild %s: voice connection lost", guildID)
	}
}
