package music

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

type PauseCommand struct{ deps Deps }

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause or resume playback" }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "on",
				Description: "Pause the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "off",
				Description: "Resume the current track",
			},
		},
	}
}

func (c *PauseCommand) Run(ctx context.Context, data any) error {
	v, ok := slashContext(data)
	if !ok {
		return nil
	}
	e := v.Event
	p := c.deps.Text.Printer(e.Locale)

	s, err := c.deps.Sessions.Lookup(e.GuildID)
	if err != nil {
		return replyError(ctx, v.Responder, p, c.Name(), err)
	}

	resume := false
	if opts := e.ApplicationCommandData().Options; len(opts) > 0 && opts[0].Name == "off" {
		resume = true
	}
	if resume {
		if err := s.Resume(ctx); err != nil {
			return replyError(ctx, v.Responder, p, c.Name(), err)
		}
		return replyText(ctx, v.Responder, p.Sprintf(msgResumed))
	}
	if err := s.Pause(ctx); err != nil {
		return replyError(ctx, v.Responder, p, c.Name(), err)
	}
	return replyText(ctx, v.Responder, p.Sprintf(msgPaused))
}
