// Package music holds the voice and queue slash commands.
package music

import (
	"context"
	"errors"
	"log"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/message"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/pkg/cmd"
)

// Deps is what the music commands share.
type Deps struct {
	Sessions *session.Registry
	Flow     *selection.Flow
	Hub      *selection.Hub
	Text     *Text
}

// Register adds every music command to r.
func Register(r *cmd.Registry, d Deps, mws ...cmd.Middleware) {
	if d.Text == nil {
		d.Text = NewText("en")
	}
	for _, c := range []command.DiscordCommand{
		&JoinCommand{deps: d},
		&LeaveCommand{deps: d},
		&PlayCommand{deps: d},
		&PauseCommand{deps: d},
		&SkipCommand{deps: d},
		&ListCommand{deps: d},
	} {
		command.RegisterCommand(r, c, mws...)
	}
}

// errorKey maps a failure to the message shown to the user.
func errorKey(err error) string {
	switch {
	case errors.Is(err, session.ErrNotInVoiceChannel):
		return msgNotInVoice
	case errors.Is(err, session.ErrConnectFailed):
		return msgConnectFailed
	case errors.Is(err, session.ErrNoActiveSession):
		return msgNoSession
	case errors.Is(err, session.ErrEmptyQueue):
		return msgEmptyQueue
	case errors.Is(err, session.ErrInvalidRange):
		return msgInvalidRange
	case errors.Is(err, session.ErrSessionAborted):
		return msgAborted
	case errors.Is(err, selection.ErrSearchUnavailable):
		return msgSearchUnavailable
	case errors.Is(err, selection.ErrNoResults):
		return msgNoResults
	case errors.Is(err, selection.ErrResolveFailed), errors.Is(err, session.ErrStartFailed):
		return msgResolveFailed
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return msgBusy
	default:
		return msgGeneric
	}
}

// replyError renders err as an ephemeral reply. Only unexpected errors are
// logged; the rest are ordinary user mistakes.
func replyError(ctx context.Context, resp command.Responder, p *message.Printer, name string, err error) error {
	key := errorKey(err)
	if key == msgGeneric {
		log.Printf("[ERR] /%s: %v", name, err)
	}
	return resp.Reply(ctx, command.Reply{
		Title:     p.Sprintf(msgErrorTitle),
		Content:   p.Sprintf(key),
		Ephemeral: true,
	})
}

func replyText(ctx context.Context, resp command.Responder, content string) error {
	return resp.Reply(ctx, command.Reply{Content: content})
}

// optionMap indexes options by name.
func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, def int) int {
	if o, ok := opts[name]; ok {
		return int(o.IntValue())
	}
	return def
}

func slashContext(data any) (*command.SlashInteractionContext, bool) {
	v, ok := data.(*command.SlashInteractionContext)
	if !ok || v.Event == nil || v.Event.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	return v, true
}
