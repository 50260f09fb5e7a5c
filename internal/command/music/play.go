package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/message"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/track"
)

const (
	playName       = "play"
	maxButtonLabel = 80
)

type PlayCommand struct{ deps Deps }

func (c *PlayCommand) Name() string        { return playName }
func (c *PlayCommand) Description() string { return "Play a link or search YouTube" }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Link or search query",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx context.Context, data any) error {
	v, ok := slashContext(data)
	if !ok {
		return nil
	}
	e := v.Event
	p := c.deps.Text.Printer(e.Locale)

	var query string
	if o, ok := optionMap(e.ApplicationCommandData().Options)["query"]; ok {
		query = strings.TrimSpace(o.StringValue())
	}
	kind := c.deps.Flow.Classify(query)

	// Search results are only for the requester's eyes.
	if err := v.Responder.Defer(ctx, kind == selection.Search); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	user := command.InteractionUser(e)
	channelID, _ := v.Voice.UserVoiceChannel(e.GuildID, user.ID)
	s, err := c.deps.Sessions.GetOrCreate(ctx, e.GuildID, channelID)
	if err != nil {
		return replyError(ctx, v.Responder, p, c.Name(), err)
	}

	req := selection.Request{
		Query:     query,
		GuildID:   e.GuildID,
		UserID:    user.ID,
		UserName:  command.DisplayName(e),
		ChannelID: e.ChannelID,
	}
	res, err := c.deps.Flow.Play(ctx, req, &choicePresenter{resp: v.Responder, p: p, query: query}, s)
	if err != nil {
		return replyError(ctx, v.Responder, p, c.Name(), err)
	}
	if res.Outcome == selection.Abandoned {
		return nil
	}

	return replyText(ctx, v.Responder, p.Sprintf(msgAdded, req.UserName, res.Track.Metadata.Title, res.Position))
}

// Component receives presses on the buttons posted by choicePresenter.
func (c *PlayCommand) Component(ctx context.Context, v *command.ComponentInteractionContext) error {
	e := v.Event
	p := c.deps.Text.Printer(e.Locale)

	token, candidateID, ok := parseChoiceID(c.Name(), e.MessageComponentData().CustomID)
	if !ok {
		return v.Responder.Defer(ctx, true)
	}

	switch c.deps.Hub.Deliver(selection.Pick{
		Token:       token,
		CandidateID: candidateID,
		UserID:      command.InteractionUser(e).ID,
	}) {
	case selection.Accepted:
		return v.Responder.Defer(ctx, true)
	case selection.Rejected:
		return v.Responder.Reply(ctx, command.Reply{Content: p.Sprintf(msgPickOther), Ephemeral: true})
	default:
		return v.Responder.Reply(ctx, command.Reply{Content: p.Sprintf(msgPickStale), Ephemeral: true})
	}
}

// choiceID builds a button custom id: "<command>:<token>:<candidate>".
func choiceID(name, token, candidateID string) string {
	return name + ":" + token + ":" + candidateID
}

func parseChoiceID(name, customID string) (token, candidateID string, ok bool) {
	rest, found := strings.CutPrefix(customID, name+":")
	if !found {
		return "", "", false
	}
	token, candidateID, found = strings.Cut(rest, ":")
	if !found || token == "" || candidateID == "" {
		return "", "", false
	}
	return token, candidateID, true
}

// choicePresenter shows search candidates as a list with one button each.
type choicePresenter struct {
	resp  command.Responder
	p     *message.Printer
	query string
}

func (cp *choicePresenter) PresentChoices(ctx context.Context, candidates []track.Candidate, token string) (selection.MessageRef, error) {
	var body strings.Builder
	body.WriteString(cp.p.Sprintf(msgChooseBody, cp.query))
	choices := make([]command.Choice, 0, len(candidates))
	for i, cand := range candidates {
		body.WriteString("\n")
		body.WriteString(cp.p.Sprintf(msgChoiceLine, i+1, cand.Title, track.FormatDuration(cand.Duration)))
		choices = append(choices, command.Choice{
			Label:    buttonLabel(i+1, cand.Title),
			CustomID: choiceID(playName, token, cand.ID),
		})
	}

	id, err := cp.resp.SendChoices(ctx, command.Reply{
		Title:     cp.p.Sprintf(msgChooseTitle),
		Content:   body.String(),
		Ephemeral: true,
	}, choices)
	if err != nil {
		return selection.MessageRef{}, err
	}
	return selection.MessageRef{ID: id}, nil
}

func (cp *choicePresenter) Dismiss(ctx context.Context, ref selection.MessageRef) error {
	if ref.ID == "" {
		return nil
	}
	return cp.resp.Delete(ctx, ref.ID)
}

func buttonLabel(n int, title string) string {
	label := fmt.Sprintf("%d. %s", n, title)
	if r := []rune(label); len(r) > maxButtonLabel {
		label = string(r[:maxButtonLabel-1]) + "…"
	}
	return label
}
