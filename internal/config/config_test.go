package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SelectionTimeout != 60*time.Second {
		t.Fatalf("SelectionTimeout = %v, want 60s", cfg.SelectionTimeout)
	}
	if !cfg.SelectionRequesterOnly || !cfg.InitSlashCommands {
		t.Fatalf("bool defaults = %+v", cfg)
	}
	if cfg.HTTPAddr != ":8080" || cfg.MetricsNamespace != "jukebox" || cfg.Locale != "en" {
		t.Fatalf("string defaults = %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("SELECTION_TIMEOUT", "15s")
	t.Setenv("SELECTION_REQUESTER_ONLY", "false")
	t.Setenv("DISCORD_GUILD_BLACKLIST", "1,2")
	t.Setenv("BOT_LOCALE", "pt-BR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SelectionTimeout != 15*time.Second || cfg.SelectionRequesterOnly {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.IsGuildBlacklisted("2") || cfg.IsGuildBlacklisted("3") {
		t.Fatalf("blacklist = %v", cfg.DiscordGuildBlacklist)
	}
	if cfg.Locale != "pt-BR" {
		t.Fatalf("Locale = %q", cfg.Locale)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"DISCORD_TOKEN": ""}},
		{"zero timeout", map[string]string{"DISCORD_TOKEN": "t", "SELECTION_TIMEOUT": "0s"}},
		{"bad rate", map[string]string{"DISCORD_TOKEN": "t", "RESOLVER_RATE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load() error = nil")
			}
		})
	}
}
