// Package discord connects the bot to the Discord gateway: command sync and
// dispatch, voice connections and channel announcements.
package discord

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/pkg/cmd"
)

const defaultCommandTimeout = 2 * time.Minute

// NewSession creates a gateway session with the intents the bot needs:
// guilds for command sync and voice states for locating users.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	return dg, nil
}

// Options configure a Bot.
type Options struct {
	// CommandTimeout bounds one command run, including its selection wait.
	CommandTimeout time.Duration
	// CacheDir holds per-guild command hashes between restarts.
	CacheDir string
	// BeforeClose runs after ctx is done and before the gateway closes, so
	// voice connections can still be left cleanly.
	BeforeClose func()
}

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	commands *cmd.Registry
	voice    *VoiceTransport

	commandTimeout time.Duration
	cacheDir       string
	beforeClose    func()
	ctx            context.Context
}

func NewBot(dg *discordgo.Session, cfg *config.Config, commands *cmd.Registry, voice *VoiceTransport, opts Options) *Bot {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	if opts.CacheDir == "" {
		opts.CacheDir = "data/commands"
	}
	return &Bot{
		dg:             dg,
		cfg:            cfg,
		commands:       commands,
		voice:          voice,
		commandTimeout: opts.CommandTimeout,
		cacheDir:       opts.CacheDir,
		beforeClose:    opts.BeforeClose,
		ctx:            context.Background(),
	}
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onInteractionCreate)
	if b.voice != nil {
		b.dg.AddHandler(b.voice.VoiceStateUpdate)
	}

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Closing gateway...")
	if b.beforeClose != nil {
		b.beforeClose()
	}
	return b.dg.Close()
}

// UserVoiceChannel implements command.VoiceLocator from gateway state.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, error) {
	return userVoiceChannel(b.dg.State, guildID, userID)
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.setupGuild(s, g.ID, g.Name)
	}
	log.Printf("[INFO] ✅ Discord bot %v is running.", r.User.Username)
}

// onGuildCreate is called when a guild becomes available or the bot joins one.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Guild available: %s (%s)", g.Guild.ID, g.Guild.Name)
	b.setupGuild(s, g.Guild.ID, g.Guild.Name)
}

func (b *Bot) setupGuild(s *discordgo.Session, guildID, name string) {
	if b.cfg.IsGuildBlacklisted(guildID) {
		log.Printf("[INFO] Leaving blacklisted guild: %s (%s)", guildID, name)
		b.removeAllCommands(guildID)
		if err := s.GuildLeave(guildID); err != nil {
			log.Printf("[ERR] Failed to leave guild %s: %v", guildID, err)
		}
		return
	}
	if !b.cfg.InitSlashCommands {
		return
	}
	if err := b.registerCommands(guildID); err != nil {
		log.Printf("[ERR] Error registering slash commands for guild %s: %v", guildID, err)
	}
}

// onInteractionCreate is called when an interaction is created
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(b.ctx, b.commandTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		c, ok := b.commands.Get(name)
		if !ok {
			log.Printf("[WARN] Unknown command: %s", name)
			return
		}
		resp := NewSlashResponder(s, i)
		b.dispatch(ctx, c, resp, &command.SlashInteractionContext{
			Session:   s,
			Event:     i,
			Responder: resp,
			Voice:     b,
		})

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		c := b.componentOwner(customID)
		if c == nil {
			log.Printf("[WARN] No matching component for customID: %s", customID)
			return
		}
		resp := NewComponentResponder(s, i)
		b.dispatch(ctx, c, resp, &command.ComponentInteractionContext{
			Session:   s,
			Event:     i,
			Responder: resp,
		})

	default:
		log.Printf("[DEBUG] Unknown interaction type: %d", i.Type)
	}
}

// componentOwner finds the command a custom id "<name>:..." belongs to.
func (b *Bot) componentOwner(customID string) cmd.Command {
	for _, c := range b.commands.GetAll() {
		if strings.HasPrefix(customID, c.Name()+":") {
			return c
		}
	}
	return nil
}

// dispatch runs c and answers unexpected failures, including panics, with
// an ephemeral error.
func (b *Bot) dispatch(ctx context.Context, c cmd.Command, resp command.Responder, data any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Command %s panicked: %v\n%s", c.Name(), r, debug.Stack())
			b.replyFailure(resp, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := c.Run(ctx, &cmd.Invocation{Data: data}); err != nil {
		log.Printf("[ERR] Error running command %s: %v", c.Name(), err)
		b.replyFailure(resp, err)
	}
}

func (b *Bot) replyFailure(resp command.Responder, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = resp.Reply(ctx, command.Reply{
		Title:     "🎵 Error",
		Content:   fmt.Sprintf("Error running command: %v", err),
		Ephemeral: true,
	})
}
