package session

import (
	"context"

	"github.com/keshon/jukebox/internal/music/track"
)

// EventSink receives playback events from a call handle. The handle only knows
// the guild id; the sink looks the session up itself.
type EventSink interface {
	TrackStarted(guildID string, trackID uint64)
	TrackEnded(guildID string, trackID uint64, err error)
	Disconnected(guildID string)
}

// CallHandle is a live voice connection owned by exactly one session.
//
// The session calls these methods while holding its mutex, so implementations
// must never invoke the EventSink synchronously from inside them.
type CallHandle interface {
	// Start begins playing src, replacing whatever was playing before.
	Start(trackID uint64, src track.Source) error
	Stop() error
	Pause() error
	Resume() error
	// Disconnect leaves the voice channel and releases the handle.
	Disconnect() error
}

// Transport opens call handles.
type Transport interface {
	Connect(ctx context.Context, guildID, channelID string, sink EventSink) (CallHandle, error)
}

// Notifier is told about every track that starts playing.
type Notifier interface {
	Notify(ctx context.Context, guildID string, t track.Queued)
}
