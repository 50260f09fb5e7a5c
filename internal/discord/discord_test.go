package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/music/notify"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/pkg/cmd"
)

type slashStub struct{ name string }

func (s slashStub) Name() string                   { return s.name }
func (s slashStub) Description() string            { return "stub" }
func (s slashStub) Run(context.Context, any) error { return nil }
func (s slashStub) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: s.name, Description: "stub"}
}

func passthrough(c cmd.Command) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error { return c.Run(ctx, inv) })
}

func TestChoiceRows(t *testing.T) {
	choices := make([]command.Choice, 7)
	for i := range choices {
		choices[i] = command.Choice{Label: "x", CustomID: "play:t:" + string(rune('a'+i))}
	}
	rows := choiceRows(choices)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	first := rows[0].(discordgo.ActionsRow)
	second := rows[1].(discordgo.ActionsRow)
	if len(first.Components) != 5 || len(second.Components) != 2 {
		t.Fatalf("row sizes = %d, %d", len(first.Components), len(second.Components))
	}
	if b := second.Components[1].(discordgo.Button); b.CustomID != "play:t:g" || b.Style != discordgo.PrimaryButton {
		t.Fatalf("last button = %+v", b)
	}
}

func TestReplyEmbedAndFlags(t *testing.T) {
	r := command.Reply{Title: "T", Content: "body", Ephemeral: true}
	e := replyEmbed(r)
	if e.Title != "T" || e.Description != "body" || e.Color != EmbedColor {
		t.Fatalf("embed = %+v", e)
	}
	if replyFlags(r) != discordgo.MessageFlagsEphemeral || replyFlags(command.Reply{}) != 0 {
		t.Fatal("flags wrong")
	}
}

func TestNowPlayingEmbed(t *testing.T) {
	e := nowPlayingEmbed(notify.NowPlaying{
		Title:        "Song",
		URL:          "https://youtu.be/x",
		RequestedBy:  "alice",
		Duration:     "3:05",
		ThumbnailURL: "https://img/x.jpg",
	})
	if e.Description != "[Song](https://youtu.be/x)" {
		t.Fatalf("description = %q", e.Description)
	}
	if len(e.Fields) != 2 || e.Fields[1].Value != "alice" || e.Thumbnail == nil {
		t.Fatalf("embed = %+v", e)
	}

	bare := nowPlayingEmbed(notify.NowPlaying{Title: "Song", Duration: "--:--"})
	if bare.Description != "Song" || len(bare.Fields) != 1 || bare.Thumbnail != nil {
		t.Fatalf("bare embed = %+v", bare)
	}
}

func TestHashCommandIgnoresOptionOrder(t *testing.T) {
	a := &discordgo.ApplicationCommand{Name: "skip", Description: "d", Options: []*discordgo.ApplicationCommandOption{
		{Name: "first", Description: "f"}, {Name: "range", Description: "r"},
	}}
	b := &discordgo.ApplicationCommand{Name: "skip", Description: "d", Options: []*discordgo.ApplicationCommandOption{
		{Name: "range", Description: "r"}, {Name: "first", Description: "f"},
	}}
	if hashCommand(a) != hashCommand(b) {
		t.Fatal("hash depends on option order")
	}
	b.Options[0].Required = true
	if hashCommand(a) == hashCommand(b) {
		t.Fatal("hash ignores required flag")
	}
}

func TestCommandDefinitionsThroughMiddleware(t *testing.T) {
	r := cmd.NewRegistry()
	command.RegisterCommand(r, slashStub{name: "play"}, passthrough)
	command.RegisterCommand(r, slashStub{name: "list"}, passthrough, passthrough)

	defs := buildCommandDefinitions(r)
	if len(defs) != 2 || defs[0].Name != "list" || defs[1].Type != discordgo.ChatApplicationCommand {
		t.Fatalf("defs = %+v", defs)
	}

	b := NewBot(nil, &config.Config{}, r, nil, Options{})
	if c := b.componentOwner("play:token:abc"); c == nil || c.Name() != "play" {
		t.Fatalf("componentOwner = %v", c)
	}
	if c := b.componentOwner("player:x"); c != nil {
		t.Fatalf("componentOwner matched %q", c.Name())
	}
}

func TestUserVoiceChannel(t *testing.T) {
	st := discordgo.NewState()
	if err := st.GuildAdd(&discordgo.Guild{ID: "g1", VoiceStates: []*discordgo.VoiceState{
		{UserID: "u1", GuildID: "g1", ChannelID: "v1"},
	}}); err != nil {
		t.Fatalf("GuildAdd() error = %v", err)
	}

	if ch, err := userVoiceChannel(st, "g1", "u1"); err != nil || ch != "v1" {
		t.Fatalf("userVoiceChannel(u1) = %q, %v", ch, err)
	}
	if _, err := userVoiceChannel(st, "g1", "u2"); !errors.Is(err, session.ErrNotInVoiceChannel) {
		t.Fatalf("userVoiceChannel(u2) error = %v", err)
	}
	if _, err := userVoiceChannel(st, "missing", "u1"); err == nil {
		t.Fatal("userVoiceChannel(missing guild) error = nil")
	}
}
