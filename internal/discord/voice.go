package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/music/stream"
	"github.com/keshon/jukebox/internal/music/track"
)

var errHandleClosed = errors.New("voice connection closed")

// VoiceTransport joins voice channels and plays tracks on them. It is the
// session.Transport of the bot.
type VoiceTransport struct {
	dg     *discordgo.Session
	opener stream.Opener

	mu      sync.Mutex
	handles map[string]*callHandle
}

func NewVoiceTransport(dg *discordgo.Session, proxy string) *VoiceTransport {
	return &VoiceTransport{
		dg:      dg,
		opener:  stream.PipeOpener(proxy),
		handles: make(map[string]*callHandle),
	}
}

type joinResult struct {
	vc  *discordgo.VoiceConnection
	err error
}

// Connect joins channelID. Joining does not take a context, so a caller that
// gives up leaves the join to finish in the background and disconnects it.
func (t *VoiceTransport) Connect(ctx context.Context, guildID, channelID string, sink session.EventSink) (session.CallHandle, error) {
	ch := make(chan joinResult, 1)
	go func() {
		vc, err := t.dg.ChannelVoiceJoin(guildID, channelID, false, true)
		ch <- joinResult{vc: vc, err: err}
	}()

	var res joinResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.vc != nil {
				_ = r.vc.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}
	if res.err != nil {
		if res.vc != nil {
			_ = res.vc.Disconnect()
		}
		return nil, fmt.Errorf("failed to join voice channel: %w", res.err)
	}
	log.Printf("[INFO] Joined voice channel %s on guild %s", channelID, guildID)

	h := &callHandle{
		guildID: guildID,
		vc:      res.vc,
		sink:    sink,
		opener:  t.opener,
		release: t.release,
	}
	t.mu.Lock()
	t.handles[guildID] = h
	t.mu.Unlock()
	return h, nil
}

func (t *VoiceTransport) release(h *callHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.handles[h.guildID]; ok && cur == h {
		delete(t.handles, h.guildID)
	}
}

// VoiceStateUpdate watches the bot's own voice state. Being kicked or
// dropped from the channel is reported to the session as a disconnection;
// leaving on purpose is not, since that handle is released first.
func (t *VoiceTransport) VoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State == nil || s.State.User == nil || v.UserID != s.State.User.ID || v.ChannelID != "" {
		return
	}
	t.mu.Lock()
	h, ok := t.handles[v.GuildID]
	t.mu.Unlock()
	if !ok {
		return
	}
	log.Printf("[WARN] Bot left voice on guild %s", v.GuildID)
	go h.sink.Disconnected(v.GuildID)
}

// callHandle is one voice connection. Playback events reach the sink from
// the playback goroutine, never from inside a handle method.
type callHandle struct {
	guildID string
	vc      *discordgo.VoiceConnection
	sink    session.EventSink
	opener  stream.Opener
	release func(*callHandle)

	mu     sync.Mutex
	cur    *stream.Playback
	closed bool
}

func (h *callHandle) Start(trackID uint64, src track.Source) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHandleClosed
	}
	h.stopLocked()

	h.cur = stream.StartPlayback(h.opener, stream.NewOpusEncoder, src, h.vc.OpusSend, stream.Hooks{
		Started: func() {
			_ = h.vc.Speaking(true)
			h.sink.TrackStarted(h.guildID, trackID)
		},
		Ended: func(err error) {
			_ = h.vc.Speaking(false)
			h.sink.TrackEnded(h.guildID, trackID, err)
		},
	})
	return nil
}

func (h *callHandle) stopLocked() {
	if h.cur != nil {
		h.cur.Stop()
		h.cur = nil
	}
}

func (h *callHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	return nil
}

func (h *callHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur != nil {
		h.cur.Pause()
	}
	return nil
}

func (h *callHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur != nil {
		h.cur.Resume()
	}
	return nil
}

func (h *callHandle) Disconnect() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.stopLocked()
	h.mu.Unlock()

	h.release(h)
	if err := h.vc.Disconnect(); err != nil {
		return fmt.Errorf("voice disconnect error: %w", err)
	}
	log.Printf("[INFO] Left voice channel on guild %s", h.guildID)
	return nil
}

// userVoiceChannel finds the voice channel a user is in from gateway state.
func userVoiceChannel(st *discordgo.State, guildID, userID string) (string, error) {
	guild, err := st.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("error retrieving guild: %w", err)
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", session.ErrNotInVoiceChannel
}
