package discord

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/command"
)

const EmbedColor = 0xb01e66

// replyEmbed renders a command reply the way every bot message looks.
func replyEmbed(r command.Reply) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       r.Title,
		Description: r.Content,
		Color:       EmbedColor,
	}
}

func replyFlags(r command.Reply) discordgo.MessageFlags {
	if r.Ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// choiceRows lays choices out as button rows, five per row.
func choiceRows(choices []command.Choice) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(choices); start += 5 {
		end := min(start+5, len(choices))
		buttons := make([]discordgo.MessageComponent, 0, end-start)
		for _, c := range choices[start:end] {
			buttons = append(buttons, discordgo.Button{
				Label:    c.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: c.CustomID,
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

// interactionResponder answers one interaction. The first answer is the
// interaction response; everything after it is a followup.
type interactionResponder struct {
	s *discordgo.Session
	i *discordgo.InteractionCreate

	mu        sync.Mutex
	responded bool
}

func (r *interactionResponder) ack(ctx context.Context, resp *discordgo.InteractionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.responded {
		return nil
	}
	if err := r.s.InteractionRespond(r.i.Interaction, resp, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	r.responded = true
	return nil
}

func (r *interactionResponder) Reply(ctx context.Context, rep command.Reply) error {
	r.mu.Lock()
	responded := r.responded
	if !responded {
		r.responded = true
	}
	r.mu.Unlock()

	if !responded {
		err := r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{replyEmbed(rep)},
				Flags:  replyFlags(rep),
			},
		}, discordgo.WithContext(ctx))
		if err != nil {
			r.mu.Lock()
			r.responded = false
			r.mu.Unlock()
		}
		return err
	}

	_, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{replyEmbed(rep)},
		Flags:  replyFlags(rep),
	}, discordgo.WithContext(ctx))
	return err
}

func (r *interactionResponder) send(ctx context.Context, rep command.Reply, choices []command.Choice) (string, error) {
	msg, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{replyEmbed(rep)},
		Components: choiceRows(choices),
		Flags:      replyFlags(rep),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", errors.New("followup returned no message")
	}
	return msg.ID, nil
}

func (r *interactionResponder) Delete(ctx context.Context, messageID string) error {
	return r.s.FollowupMessageDelete(r.i.Interaction, messageID, discordgo.WithContext(ctx))
}

// SlashResponder answers slash commands.
type SlashResponder struct {
	interactionResponder
}

func NewSlashResponder(s *discordgo.Session, i *discordgo.InteractionCreate) *SlashResponder {
	return &SlashResponder{interactionResponder{s: s, i: i}}
}

// Defer shows the "thinking" state; ephemeral makes the eventual answer
// visible to the caller only.
func (r *SlashResponder) Defer(ctx context.Context, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return r.ack(ctx, resp)
}

// SendChoices defers first when nothing was sent yet, since choices are
// always a followup.
func (r *SlashResponder) SendChoices(ctx context.Context, rep command.Reply, choices []command.Choice) (string, error) {
	if err := r.Defer(ctx, rep.Ephemeral); err != nil {
		return "", err
	}
	return r.send(ctx, rep, choices)
}

// ComponentResponder answers button presses.
type ComponentResponder struct {
	interactionResponder
}

func NewComponentResponder(s *discordgo.Session, i *discordgo.InteractionCreate) *ComponentResponder {
	return &ComponentResponder{interactionResponder{s: s, i: i}}
}

// Defer acknowledges the press without changing the message it came from.
func (r *ComponentResponder) Defer(ctx context.Context, _ bool) error {
	return r.ack(ctx, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
}

func (r *ComponentResponder) SendChoices(ctx context.Context, rep command.Reply, choices []command.Choice) (string, error) {
	if err := r.Defer(ctx, rep.Ephemeral); err != nil {
		return "", err
	}
	return r.send(ctx, rep, choices)
}
