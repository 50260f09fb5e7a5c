package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/music/session"
)

type JoinCommand struct{ deps Deps }

func (c *JoinCommand) Name() string        { return "join" }
func (c *JoinCommand) Description() string { return "Join your voice channel" }

func (c *JoinCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *JoinCommand) Run(ctx context.Context, data any) error {
	v, ok := slashContext(data)
	if !ok {
		return nil
	}
	e := v.Event
	p := c.deps.Text.Printer(e.Locale)

	user := command.InteractionUser(e)
	channelID, _ := v.Voice.UserVoiceChannel(e.GuildID, user.ID)

	// Connecting can take a few seconds.
	if err := v.Responder.Defer(ctx, false); err != nil {
		return err
	}
	s, err := c.deps.Sessions.GetOrCreate(ctx, e.GuildID, channelID)
	if err != nil {
		return replyError(ctx, v.Responder, p, c.Name(), err)
	}
	return replyText(ctx, v.Responder, p.Sprintf(msgJoined, s.ChannelID()))
}

type LeaveCommand struct{ deps Deps }

func (c *LeaveCommand) Name() string        { return "leave" }
func (c *LeaveCommand) Description() string { return "Leave the voice channel and clear the queue" }

func (c *LeaveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *LeaveCommand) Run(ctx context.Context, data any) error {
	v, ok := slashContext(data)
	if !ok {
		return nil
	}
	e := v.Event
	p := c.deps.Text.Printer(e.Locale)

	if !c.deps.Sessions.Remove(e.GuildID) {
		return replyError(ctx, v.Responder, p, c.Name(), session.ErrNoActiveSession)
	}
	return replyText(ctx, v.Responder, p.Sprintf(msgLeft))
}
