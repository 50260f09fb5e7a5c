package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/observability"
	"github.com/keshon/jukebox/pkg/cmd"
)

type recordingResponder struct {
	replies []command.Reply
}

func (r *recordingResponder) Defer(context.Context, bool) error { return nil }
func (r *recordingResponder) Reply(_ context.Context, rep command.Reply) error {
	r.replies = append(r.replies, rep)
	return nil
}
func (r *recordingResponder) SendChoices(context.Context, command.Reply, []command.Choice) (string, error) {
	return "m1", nil
}
func (r *recordingResponder) Delete(context.Context, string) error { return nil }

type countingCommand struct {
	runs int
	err  error
}

func (c *countingCommand) Name() string        { return "ping" }
func (c *countingCommand) Description() string { return "ping" }
func (c *countingCommand) Run(context.Context, *cmd.Invocation) error {
	c.runs++
	return c.err
}

func slashContext(guildID string, resp command.Responder) *command.SlashInteractionContext {
	return &command.SlashInteractionContext{
		Event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			GuildID: guildID,
			User:    &discordgo.User{ID: "u1", Username: "alice"},
		}},
		Responder: resp,
	}
}

func TestGuildOnlyRejectsDirectMessages(t *testing.T) {
	inner := &countingCommand{}
	resp := &recordingResponder{}
	c := cmd.Apply(inner, WithGuildOnly())

	if err := c.Run(context.Background(), &cmd.Invocation{Data: slashContext("", resp)}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if inner.runs != 0 {
		t.Fatal("command ran outside a guild")
	}
	if len(resp.replies) != 1 || !resp.replies[0].Ephemeral {
		t.Fatalf("replies = %+v, want one ephemeral reply", resp.replies)
	}

	if err := c.Run(context.Background(), &cmd.Invocation{Data: slashContext("g1", resp)}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if inner.runs != 1 {
		t.Fatalf("runs = %d, want 1", inner.runs)
	}
}

func TestCommandLoggerCountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)
	boom := errors.New("boom")
	inner := &countingCommand{}
	c := cmd.Apply(inner, WithCommandLogger(m))
	inv := &cmd.Invocation{Data: slashContext("g1", &recordingResponder{})}

	if err := c.Run(context.Background(), inv); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	inner.err = boom
	if err := c.Run(context.Background(), inv); !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`test_command_runs_total{command="ping",result="ok"} 1`,
		`test_command_runs_total{command="ping",result="error"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
