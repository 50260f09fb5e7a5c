// cmd/discord/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keshon/jukebox/internal/command/music"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/discord"
	"github.com/keshon/jukebox/internal/httpapi"
	"github.com/keshon/jukebox/internal/middleware"
	"github.com/keshon/jukebox/internal/music/notify"
	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/music/sources/youtube"
	"github.com/keshon/jukebox/internal/observability"
	v "github.com/keshon/jukebox/internal/version"
	"github.com/keshon/jukebox/pkg/cmd"
)

func main() {
	log.Printf("[INFO] Starting %v bot (%s)...", v.AppName, v.Version)

	cfg := config.New()
	metrics := observability.NewMetrics(cfg.MetricsNamespace, nil)

	gw, err := youtube.New(youtube.Options{
		Proxy:   cfg.YouTubeProxy,
		Rate:    cfg.ResolverRate,
		Metrics: metrics,
	})
	if err != nil {
		log.Fatal(err)
	}

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		log.Fatal(err)
	}

	voice := discord.NewVoiceTransport(dg, cfg.YouTubeProxy)
	sessions := session.NewRegistry(voice, session.Options{
		Notifier:      notify.NewPlaybackNotifier(discord.NewAnnouncer(dg), metrics),
		NotifyTimeout: cfg.NotifyTimeout,
		Metrics:       metrics,
	})
	hub := selection.NewHub(cfg.SelectionRequesterOnly)
	flow := selection.New(gw, hub, selection.Options{
		Timeout: cfg.SelectionTimeout,
		Metrics: metrics,
	})

	music.Register(cmd.DefaultRegistry, music.Deps{
		Sessions: sessions,
		Flow:     flow,
		Hub:      hub,
		Text:     music.NewText(cfg.Locale),
	},
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(metrics),
	)
	defer cmd.DefaultRegistry.Reset()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.New(sessions, metrics).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("[INFO] HTTP listening on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERR] HTTP server: %v", err)
			}
		}()
	}

	bot := discord.NewBot(dg, cfg, cmd.DefaultRegistry, voice, discord.Options{
		CommandTimeout: cfg.SelectionTimeout + time.Minute,
		BeforeClose: func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := sessions.Close(closeCtx); err != nil {
				log.Printf("[WARN] Sessions not fully closed: %v", err)
			}
		},
	})
	if err := bot.Run(ctx); err != nil {
		log.Println("[ERR] Discord bot error:", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] HTTP shutdown: %v", err)
		}
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
