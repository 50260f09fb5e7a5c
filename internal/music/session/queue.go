package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/keshon/jukebox/internal/music/track"
)

// PageSize is the number of entries List returns per page.
const PageSize = 10

// Entry is a queued track together with its 1-based queue position.
type Entry struct {
	Position int
	Track    track.Queued
}

// Snapshot is a point-in-time copy of a session's queue.
type Snapshot struct {
	GuildID   string
	ChannelID string
	Paused    bool
	Tracks    []track.Queued
}

// Enqueue appends a track and returns it with its 1-based position. If the
// queue was empty the track starts playing immediately; a track the handle
// refuses to start is dropped and ErrStartFailed is returned.
func (s *Session) Enqueue(ctx context.Context, src track.Source, md track.Metadata, channelID string) (track.Queued, int, error) {
	var (
		out track.Queued
		pos int
	)
	err := s.do(ctx, "enqueue", func() error {
		t := &track.Queued{
			ID:        s.nextID(),
			Source:    src,
			Metadata:  md,
			State:     track.Pending,
			ChannelID: channelID,
			AddedAt:   time.Now(),
		}
		s.queue = append(s.queue, t)
		pos = len(s.queue)
		if pos == 1 {
			s.startHeadLocked()
			if len(s.queue) == 0 || s.queue[0] != t {
				return ErrStartFailed
			}
		}
		out = *t
		return nil
	})
	if err != nil {
		return track.Queued{}, 0, err
	}
	return out, pos, nil
}

// Pause pauses the current track. Pausing an already paused session, or one
// with nothing queued, succeeds without doing anything.
func (s *Session) Pause(ctx context.Context) error {
	return s.do(ctx, "pause", func() error {
		if len(s.queue) == 0 || s.paused {
			return nil
		}
		if err := s.handle.Pause(); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
		s.paused = true
		return nil
	})
}

// Resume resumes a paused track. It is the mirror of Pause.
func (s *Session) Resume(ctx context.Context) error {
	return s.do(ctx, "resume", func() error {
		if len(s.queue) == 0 || !s.paused {
			return nil
		}
		if err := s.handle.Resume(); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		s.paused = false
		return nil
	})
}

// SkipRange removes the 0-based inclusive range [start, end] from the queue
// and returns how many tracks were removed. end is clamped to the last index;
// if the range is still empty the queue is left alone and ErrInvalidRange is
// returned. Removing the current track stops it and starts the next one.
func (s *Session) SkipRange(ctx context.Context, start, end int) (int, error) {
	var removed int
	err := s.do(ctx, "skip", func() error {
		n := len(s.queue)
		if end > n-1 {
			end = n - 1
		}
		if start < 0 || end < start {
			return ErrInvalidRange
		}

		for _, t := range s.queue[start : end+1] {
			t.State = track.Stopped
		}
		removed = end - start + 1

		rest := make([]*track.Queued, 0, n-removed)
		rest = append(rest, s.queue[:start]...)
		rest = append(rest, s.queue[end+1:]...)
		s.queue = rest

		if start == 0 {
			if err := s.handle.Stop(); err != nil {
				log.Printf("[WARN] [Session] guild %s: stop on skip: %v", s.guildID, err)
			}
			s.startHeadLocked()
		}
		log.Printf("[Session] guild %s: skipped %d track(s) [%d..%d]", s.guildID, removed, start, end)
		return nil
	})
	return removed, err
}

// List returns one page of the queue. Pages are 0-based. A page past the end
// yields an empty slice; an empty queue yields ErrEmptyQueue.
func (s *Session) List(ctx context.Context, page int) ([]Entry, error) {
	var out []Entry
	err := s.do(ctx, "list", func() error {
		if len(s.queue) == 0 {
			return ErrEmptyQueue
		}
		out = []Entry{}
		if page < 0 {
			return nil
		}
		from := page * PageSize
		if from >= len(s.queue) {
			return nil
		}
		to := min(from+PageSize, len(s.queue))
		for i := from; i < to; i++ {
			out = append(out, Entry{Position: i + 1, Track: *s.queue[i]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot copies the whole queue.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{GuildID: s.guildID, ChannelID: s.channelID}
	err := s.do(ctx, "snapshot", func() error {
		snap.Paused = s.paused
		snap.Tracks = make([]track.Queued, len(s.queue))
		for i, t := range s.queue {
			snap.Tracks[i] = *t
		}
		return nil
	})
	return snap, err
}

// Page returns one 0-based page of the snapshot. A negative page or one past
// the end is empty.
func (snap Snapshot) Page(page int) []Entry {
	out := []Entry{}
	from := page * PageSize
	if page < 0 || from >= len(snap.Tracks) {
		return out
	}
	to := min(from+PageSize, len(snap.Tracks))
	for i := from; i < to; i++ {
		out = append(out, Entry{Position: i + 1, Track: snap.Tracks[i]})
	}
	return out
}

// Len returns the number of queued tracks, including the current one.
func (s *Session) Len(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, "len", func() error {
		n = len(s.queue)
		return nil
	})
	return n, err
}
