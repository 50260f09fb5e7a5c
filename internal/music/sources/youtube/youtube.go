// Package youtube resolves queries and links to YouTube (and anything else
// yt-dlp understands) for the selection flow.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	kkdai "github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
	"github.com/ppalone/ytsearch"
	"golang.org/x/time/rate"

	"github.com/keshon/jukebox/internal/music/selection"
	"github.com/keshon/jukebox/internal/music/track"
	"github.com/keshon/jukebox/internal/observability"
	"github.com/keshon/jukebox/pkg/retrylimit"
)

const (
	SourceYouTube = "youtube"
	SourceYTDLP   = "ytdlp"
)

var (
	ErrNotPlayable = errors.New("link is not a playable video")
)

type Options struct {
	Proxy   string
	Rate    float64
	Metrics *observability.Metrics
}

// Gateway implements selection.Gateway. Searches go to ytsearch first and
// fall back to yt-dlp; metadata comes from kkdai/youtube with a yt-dlp
// fallback for other sites.
type Gateway struct {
	search  *ytsearch.Client
	videos  *kkdai.Client
	proxy   string
	limiter *retrylimit.Limiter
	policy  retrylimit.Policy
	metrics *observability.Metrics
}

var _ selection.Gateway = (*Gateway)(nil)

func New(opts Options) (*Gateway, error) {
	hc, err := newHTTPClient(opts.Proxy)
	if err != nil {
		return nil, err
	}
	if opts.Rate <= 0 {
		opts.Rate = 2
	}
	return &Gateway{
		search:  ytsearch.NewClient(hc),
		videos:  &kkdai.Client{HTTPClient: hc},
		proxy:   opts.Proxy,
		limiter: retrylimit.New(retrylimit.Config{Rate: rate.Limit(opts.Rate)}),
		policy:  retrylimit.DefaultPolicy(),
		metrics: opts.Metrics,
	}, nil
}

func (g *Gateway) ytdlp() *ytdlp.Command {
	cmd := ytdlp.New().
		NoWarnings().
		IgnoreConfig().
		NoPlaylist()
	if g.proxy != "" {
		cmd.Proxy(g.proxy)
	}
	return cmd
}

// Search returns up to selection.MaxCandidates results for query.
func (g *Gateway) Search(ctx context.Context, query string) (out []track.Candidate, err error) {
	defer func() { g.metrics.ResolverCall("search", err) }()

	err = retrylimit.Do(ctx, g.limiter, g.policy, func(ctx context.Context) error {
		res, err := g.search.Search(ctx, query)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, r := range res.Results {
			if r.VideoID == "" {
				continue
			}
			out = append(out, track.Candidate{ID: r.VideoID, Title: r.Title, Duration: parseClock(r.Duration)})
			if len(out) == selection.MaxCandidates {
				break
			}
		}
		return nil
	})
	if err == nil && len(out) > 0 {
		return out, nil
	}
	if err != nil {
		log.Printf("[WARN] [YouTube] ytsearch failed for %q: %v, trying yt-dlp", query, err)
	}

	fallback, ferr := g.searchYTDLP(ctx, query)
	if ferr != nil {
		if err == nil {
			err = ferr
		}
		return nil, err
	}
	return fallback, nil
}

func (g *Gateway) searchYTDLP(ctx context.Context, query string) ([]track.Candidate, error) {
	var out []track.Candidate
	err := retrylimit.Do(ctx, g.limiter, g.policy, func(ctx context.Context) error {
		res, err := g.ytdlp().
			FlatPlaylist().
			Print("%(id)s\t%(title)s\t%(duration)s").
			PlaylistItems(fmt.Sprintf("1-%d", selection.MaxCandidates)).
			Run(ctx, fmt.Sprintf("ytsearch%d:%s", selection.MaxCandidates, query))
		if err != nil {
			return err
		}
		out = parseSearchLines(res.Stdout)
		return nil
	})
	return out, err
}

func parseSearchLines(stdout string) []track.Candidate {
	var out []track.Candidate
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 || !videoIDPattern.MatchString(parts[0]) {
			continue
		}
		out = append(out, track.Candidate{ID: parts[0], Title: parts[1], Duration: parseSeconds(parts[2])})
	}
	return out
}

// ResolveDirect accepts YouTube video links as they are and asks yt-dlp
// about anything else.
func (g *Gateway) ResolveDirect(ctx context.Context, rawURL string) (src track.Source, err error) {
	defer func() { g.metrics.ResolverCall("resolve_direct", err) }()

	if isYouTubeURL(rawURL) {
		id, ok := videoID(rawURL)
		if !ok {
			return track.Source{}, fmt.Errorf("%w: %s", ErrNotPlayable, rawURL)
		}
		return track.Source{URL: watchURL(id), Provider: SourceYouTube}, nil
	}

	var page string
	err = retrylimit.Do(ctx, g.limiter, g.policy, func(ctx context.Context) error {
		res, err := g.ytdlp().Print("%(webpage_url)s").Run(ctx, rawURL)
		if err != nil {
			return retrylimit.Permanent(err)
		}
		page = firstLine(res.Stdout)
		return nil
	})
	if err != nil {
		return track.Source{}, err
	}
	if page == "" {
		page = rawURL
	}
	return track.Source{URL: page, Provider: SourceYTDLP}, nil
}

// ResolveCandidate maps a search result back to its watch URL.
func (g *Gateway) ResolveCandidate(_ context.Context, c track.Candidate) (track.Source, error) {
	if !videoIDPattern.MatchString(c.ID) {
		return track.Source{}, fmt.Errorf("%w: candidate %q", ErrNotPlayable, c.ID)
	}
	return track.Source{URL: watchURL(c.ID), Provider: SourceYouTube}, nil
}

// FetchMetadata looks up title, duration and thumbnail.
func (g *Gateway) FetchMetadata(ctx context.Context, src track.Source) (md track.Metadata, err error) {
	defer func() { g.metrics.ResolverCall("metadata", err) }()

	if id, ok := videoID(src.URL); ok {
		md, err = g.metadataKkdai(ctx, id)
		if err == nil {
			return md, nil
		}
		log.Printf("[WARN] [YouTube] kkdai metadata for %s: %v, trying yt-dlp", id, err)
	}
	return g.metadataYTDLP(ctx, src.URL)
}

func (g *Gateway) metadataKkdai(ctx context.Context, id string) (track.Metadata, error) {
	var md track.Metadata
	err := retrylimit.Do(ctx, g.limiter, g.policy, func(ctx context.Context) error {
		v, err := g.videos.GetVideoContext(ctx, id)
		if err != nil {
			return err
		}
		md = track.Metadata{Title: v.Title, Duration: v.Duration}
		if n := len(v.Thumbnails); n > 0 {
			md.ThumbnailURL = v.Thumbnails[n-1].URL
		}
		return nil
	})
	return md, err
}

func (g *Gateway) metadataYTDLP(ctx context.Context, pageURL string) (track.Metadata, error) {
	var md track.Metadata
	err := retrylimit.Do(ctx, g.limiter, g.policy, func(ctx context.Context) error {
		res, err := g.ytdlp().Print("%(title)s\t%(duration)s\t%(thumbnail)s").Run(ctx, pageURL)
		if err != nil {
			return err
		}
		md = parseMetadataLine(firstLine(res.Stdout))
		if md.Title == "" {
			return retrylimit.Permanent(fmt.Errorf("no metadata for %s", pageURL))
		}
		return nil
	})
	return md, err
}

func parseMetadataLine(line string) track.Metadata {
	parts := strings.Split(line, "\t")
	var md track.Metadata
	if len(parts) > 0 && parts[0] != "NA" {
		md.Title = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		md.Duration = parseSeconds(parts[1])
	}
	if len(parts) > 2 && strings.HasPrefix(parts[2], "http") {
		md.ThumbnailURL = strings.TrimSpace(parts[2])
	}
	return md
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
