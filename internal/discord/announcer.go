package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/music/notify"
)

// Announcer posts "now playing" embeds to text channels.
type Announcer struct {
	dg *discordgo.Session
}

func NewAnnouncer(dg *discordgo.Session) *Announcer {
	return &Announcer{dg: dg}
}

func (a *Announcer) Announce(ctx context.Context, channelID string, np notify.NowPlaying) error {
	_, err := a.dg.ChannelMessageSendEmbed(channelID, nowPlayingEmbed(np), discordgo.WithContext(ctx))
	return err
}

func nowPlayingEmbed(np notify.NowPlaying) *discordgo.MessageEmbed {
	desc := np.Title
	if np.URL != "" {
		desc = fmt.Sprintf("[%s](%s)", np.Title, np.URL)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Now playing",
		Description: desc,
		Color:       EmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: np.Duration, Inline: true},
		},
	}
	if np.RequestedBy != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Requested by", Value: np.RequestedBy, Inline: true})
	}
	if np.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: np.ThumbnailURL}
	}
	return embed
}
