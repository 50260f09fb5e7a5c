package middleware

import (
	"context"
	"log"
	"time"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/observability"
	"github.com/keshon/jukebox/pkg/cmd"
)

// WithCommandLogger wraps a command to log its execution and count it in m.
func WithCommandLogger(m *observability.Metrics) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)
			elapsed := time.Since(start).Round(time.Millisecond)

			kind := "slash"
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				u := command.InteractionUser(v.Event)
				log.Printf("[INFO] /%s by %s (%s) in guild %s took %s", c.Name(), u.Username, u.ID, v.Event.GuildID, elapsed)
			case *command.ComponentInteractionContext:
				kind = "component"
				u := command.InteractionUser(v.Event)
				log.Printf("[INFO] component %s by %s (%s) in guild %s took %s", c.Name(), u.Username, u.ID, v.Event.GuildID, elapsed)
			}
			if err != nil {
				log.Printf("[ERR] %s %s failed: %v", kind, c.Name(), err)
			}
			m.CommandRun(c.Name(), err)
			return err
		})
	}
}
