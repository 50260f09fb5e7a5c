package command

import (
	"context"
	"errors"

	"github.com/keshon/jukebox/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// ErrNoComponentHandler is returned when a component press reaches a command
// that does not handle components.
var ErrNoComponentHandler = errors.New("command does not handle components")

// Reply is a rendered answer. Commands build replies, responders deliver them.
type Reply struct {
	Title     string
	Content   string
	Ephemeral bool
}

// Choice is one button of a choice list.
type Choice struct {
	Label    string
	CustomID string
}

// Responder answers the interaction a command runs for. There is one
// implementation per request origin (slash command, component press).
type Responder interface {
	// Defer acknowledges the interaction; later replies become followups.
	Defer(ctx context.Context, ephemeral bool) error
	Reply(ctx context.Context, r Reply) error
	// SendChoices posts r with one button per choice and returns the message id.
	SendChoices(ctx context.Context, r Reply, choices []Choice) (string, error)
	Delete(ctx context.Context, messageID string) error
}

// VoiceLocator finds the voice channel a user is connected to.
type VoiceLocator interface {
	UserVoiceChannel(guildID, userID string) (string, error)
}

// Discord-specific contexts (what the runtime passes when executing).

type SlashInteractionContext struct {
	Session   *discordgo.Session
	Event     *discordgo.InteractionCreate
	Responder Responder
	Voice     VoiceLocator
}

type ComponentInteractionContext struct {
	Session   *discordgo.Session
	Event     *discordgo.InteractionCreate
	Responder Responder
}

// SlashProvider is implemented by commands registered as slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// ComponentInteractionHandler handles presses on components whose custom id
// starts with "<command name>:".
type ComponentInteractionHandler interface {
	Component(ctx context.Context, c *ComponentInteractionContext) error
}

// DiscordCommand is what individual Discord commands implement. data is one
// of the interaction contexts above.
type DiscordCommand interface {
	Name() string
	Description() string
	Run(ctx context.Context, data any) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// universal registry. Component contexts are routed to Component, so presses
// pass through the same middleware chain as slash commands.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	if c, ok := inv.Data.(*ComponentInteractionContext); ok {
		return a.Component(ctx, c)
	}
	return a.Cmd.Run(ctx, inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func (a *DiscordAdapter) Component(ctx context.Context, c *ComponentInteractionContext) error {
	if ch, ok := a.Cmd.(ComponentInteractionHandler); ok {
		return ch.Component(ctx, c)
	}
	return ErrNoComponentHandler
}

// RegisterCommand registers a Discord command with r and applies middlewares.
func RegisterCommand(r *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) {
	c := cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...)
	r.Register(c)
}

// InteractionUser returns the user behind an interaction, in guilds or DMs.
func InteractionUser(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// DisplayName is the name replies should show for u in a guild.
func DisplayName(e *discordgo.InteractionCreate) string {
	if e.Member != nil && e.Member.Nick != "" {
		return e.Member.Nick
	}
	u := InteractionUser(e)
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
