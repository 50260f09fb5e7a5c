// /internal/config/config.go
package config

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN,required,notEmpty"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	InitSlashCommands     bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`

	SelectionTimeout       time.Duration `env:"SELECTION_TIMEOUT" envDefault:"60s"`
	SelectionRequesterOnly bool          `env:"SELECTION_REQUESTER_ONLY" envDefault:"true"`

	YouTubeProxy string  `env:"YOUTUBE_PROXY"`
	ResolverRate float64 `env:"RESOLVER_RATE" envDefault:"2"`

	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	Locale        string        `env:"BOT_LOCALE" envDefault:"en"`

	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"jukebox"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New is Load for main: it exits on a bad configuration.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.SelectionTimeout <= 0 {
		return fmt.Errorf("SELECTION_TIMEOUT must be positive, got %s", c.SelectionTimeout)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", c.NotifyTimeout)
	}
	if c.ResolverRate <= 0 {
		return fmt.Errorf("RESOLVER_RATE must be positive, got %v", c.ResolverRate)
	}
	return nil
}

// IsGuildBlacklisted reports whether the bot should leave guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return slices.Contains(c.DiscordGuildBlacklist, guildID)
}
