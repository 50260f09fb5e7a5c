// Package notify announces tracks as they start playing.
package notify

import (
	"context"
	"log"

	"github.com/keshon/jukebox/internal/music/track"
	"github.com/keshon/jukebox/internal/observability"
)

// NowPlaying is the payload of a "now playing" announcement.
type NowPlaying struct {
	GuildID      string
	Title        string
	RequestedBy  string
	Duration     string
	ThumbnailURL string
	URL          string
}

// Announcer delivers announcements to a text channel.
type Announcer interface {
	Announce(ctx context.Context, channelID string, np NowPlaying) error
}

// PlaybackNotifier turns track-start events into announcements. Failures are
// logged and never reach playback.
type PlaybackNotifier struct {
	announcer Announcer
	metrics   *observability.Metrics
}

func NewPlaybackNotifier(a Announcer, m *observability.Metrics) *PlaybackNotifier {
	return &PlaybackNotifier{announcer: a, metrics: m}
}

func (n *PlaybackNotifier) Notify(ctx context.Context, guildID string, t track.Queued) {
	if t.ChannelID == "" {
		return
	}
	np := NowPlaying{
		GuildID:      guildID,
		Title:        t.Metadata.Title,
		RequestedBy:  t.Metadata.RequestedBy,
		Duration:     track.FormatDuration(t.Metadata.Duration),
		ThumbnailURL: t.Metadata.ThumbnailURL,
		URL:          t.Source.URL,
	}
	err := n.announcer.Announce(ctx, t.ChannelID, np)
	n.metrics.Notification(err)
	if err != nil {
		log.Printf("[WARN] [Notifier] guild %s: announce %q: %v", guildID, np.Title, err)
	}
}
