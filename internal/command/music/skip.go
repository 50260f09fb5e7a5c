package music

import (
	"context"
	"math"

	"github.com/bwmarrin/discordgo"
)

type SkipCommand struct{ deps Deps }

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip tracks in the queue" }

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	one := 1.0
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "first",
				Description: "Skip the current track, or the first few",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "count",
						Description: "How many tracks to skip",
						MinValue:    &one,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "position",
				Description: "Skip the track at a position",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "at",
						Description: "Queue position (1 is the current track)",
						Required:    true,
						MinValue:    &one,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "range",
				Description: "Skip a range of positions",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "start",
						Description: "First position to skip",
						Required:    true,
						MinValue:    &one,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "end",
						Description: "Last position to skip (default: end of queue)",
						MinValue:    &one,
					},
				},
			},
		},
	}
}

func (c *SkipCommand) Run(ctx context.Context, data any) error {
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

	start, end := skipBounds(e.ApplicationCommandData().Options)
	n, err := s.SkipRange(ctx, start, end)
	if err != nil {
		return replyError(ctx, v.Responder, p, c.Name(), err)
	}
	return replyText(ctx, v.Responder, p.Sprintf(msgSkipped, n))
}

// skipBounds maps 1-based user input to the 0-based inclusive range for
// SkipRange. No subcommand skips the current track.
func skipBounds(opts []*discordgo.ApplicationCommandInteractionDataOption) (start, end int) {
	if len(opts) == 0 {
		return 0, 0
	}
	sub := opts[0]
	args := optionMap(sub.Options)

	switch sub.Name {
	case "first":
		count := intOption(args, "count", 1)
		return 0, count - 1
	case "position":
		at := intOption(args, "at", 0)
		return at - 1, at - 1
	case "range":
		start = intOption(args, "start", 0) - 1
		end = intOption(args, "end", math.MaxInt)
		if end != math.MaxInt {
			end--
		}
		return start, end
	default:
		return 0, 0
	}
}
