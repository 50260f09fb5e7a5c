// Package track holds the value types shared by the music session, the
// selection flow and the resolver adapters.
package track

import (
	"fmt"
	"time"
)

// PlayState is the lifecycle state of a queued track.
type PlayState int

const (
	Pending PlayState = iota
	Playing
	Stopped
)

func (s PlayState) String() string {
	switch s {
	case Pending:
		return "queued"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("PlayState(%d)", int(s))
	}
}

// Source is a resolved playable reference. The session never looks inside it;
// only the voice transport does.
type Source struct {
	// URL is the page URL the user asked for or picked (a watch URL for YouTube).
	URL string
	// Provider names the resolver that produced the source, e.g. "youtube".
	Provider string
}

// Metadata is descriptive information about a track. It is immutable once a
// track has been queued.
type Metadata struct {
	Title        string
	Duration     time.Duration
	RequestedBy  string
	ThumbnailURL string
}

// Candidate is one search result offered to the user.
type Candidate struct {
	ID       string
	Title    string
	Duration time.Duration
}

// Queued is a track that has been admitted to a guild queue.
type Queued struct {
	ID        uint64
	Source    Source
	Metadata  Metadata
	State     PlayState
	ChannelID string
	AddedAt   time.Time
}

// FormatDuration renders d as m:ss or h:mm:ss. Zero means unknown and renders
// as "--:--".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	total := int(d.Round(time.Second) / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
