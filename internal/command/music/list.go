package music

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/music/track"
)

type ListCommand struct{ deps Deps }

func (c *ListCommand) Name() string        { return "list" }
func (c *ListCommand) Description() string { return "Show the queue" }

func (c *ListCommand) SlashDefinition() *discordgo.ApplicationCommand {
	one := 1.0
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "page",
				Description: "Page number",
				MinValue:    &one,
			},
		},
	}
}

func (c *ListCommand) Run(ctx context.Context, data any) error {
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

	page := intOption(optionMap(e.ApplicationCommandData().Options), "page", 1)
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return replyError(ctx, v.Responder, p, c.Name(), err)
	}
	total := len(snap.Tracks)
	if total == 0 {
		return replyError(ctx, v.Responder, p, c.Name(), session.ErrEmptyQueue)
	}
	entries := snap.Page(page - 1)
	if len(entries) == 0 {
		return v.Responder.Reply(ctx, command.Reply{Content: p.Sprintf(msgListNoPage, page), Ephemeral: true})
	}

	var b strings.Builder
	for i, en := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Sprintf(msgListLine, en.Position, en.Track.Metadata.Title, track.FormatDuration(en.Track.Metadata.Duration)))
	}
	pages := (total + session.PageSize - 1) / session.PageSize
	b.WriteString("\n\n")
	b.WriteString(p.Sprintf(msgListFooter, page, pages, total))
	if snap.Paused {
		b.WriteString("\n")
		b.WriteString(p.Sprintf(msgListPaused))
	}

	return v.Responder.Reply(ctx, command.Reply{Title: p.Sprintf(msgListTitle), Content: b.String()})
}
