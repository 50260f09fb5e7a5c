// Package selection turns a user query into a queued track, asking the user to
// pick among search results when the query is not a direct link.
package selection

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/keshon/jukebox/internal/music/track"
	"github.com/keshon/jukebox/internal/observability"
)

const (
	// MaxCandidates is the most search results ever offered.
	MaxCandidates = 5

	defaultTimeout = 60 * time.Second
	dismissTimeout = 5 * time.Second
)

// Gateway resolves user input into playable sources.
type Gateway interface {
	ResolveDirect(ctx context.Context, rawURL string) (track.Source, error)
	Search(ctx context.Context, query string) ([]track.Candidate, error)
	ResolveCandidate(ctx context.Context, c track.Candidate) (track.Source, error)
	FetchMetadata(ctx context.Context, src track.Source) (track.Metadata, error)
}

// MessageRef points at a presented choice list so it can be dismissed.
type MessageRef struct {
	ID string
}

// Presenter shows choices to the user and takes them down again.
type Presenter interface {
	PresentChoices(ctx context.Context, candidates []track.Candidate, token string) (MessageRef, error)
	Dismiss(ctx context.Context, ref MessageRef) error
}

// Enqueuer is the queue a resolved track ends up in.
type Enqueuer interface {
	Enqueue(ctx context.Context, src track.Source, md track.Metadata, channelID string) (track.Queued, int, error)
}

// Request is one play request.
type Request struct {
	Query     string
	GuildID   string
	UserID    string
	UserName  string
	ChannelID string
}

// Outcome is how a flow ended.
type Outcome int

const (
	Enqueued Outcome = iota
	// Abandoned means the user never picked: timeout, supersession or
	// cancellation. Nothing was queued and no error is reported.
	Abandoned
)

// Result is what a flow produced.
type Result struct {
	Outcome  Outcome
	Kind     Kind
	Track    track.Queued
	Position int
	Reason   WaitResult
}

type Options struct {
	Timeout time.Duration
	Metrics *observability.Metrics
}

// Flow runs play requests. It holds no session lock while it waits on the
// user; the queue is only touched at the final Enqueue.
type Flow struct {
	gateway Gateway
	hub     *Hub
	timeout time.Duration
	metrics *observability.Metrics
}

func New(gw Gateway, hub *Hub, opts Options) *Flow {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Flow{gateway: gw, hub: hub, timeout: opts.Timeout, metrics: opts.Metrics}
}

// Timeout returns how long a flow waits for a pick.
func (f *Flow) Timeout() time.Duration { return f.timeout }

// Classify exposes query classification to callers that render differently
// per kind.
func (f *Flow) Classify(query string) Kind { return Classify(query) }

// Play resolves req.Query and enqueues the result. Search queries present
// choices through p and wait for a pick.
func (f *Flow) Play(ctx context.Context, req Request, p Presenter, q Enqueuer) (Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{}, ErrNoResults
	}

	kind := Classify(query)
	var (
		src track.Source
		err error
	)
	switch kind {
	case Direct:
		src, err = f.gateway.ResolveDirect(ctx, query)
		if err != nil {
			f.metrics.Selection("resolve_failed")
			return Result{Kind: kind}, fmt.Errorf("%w: %w", ErrResolveFailed, err)
		}
	default:
		var (
			res Result
			ok  bool
		)
		src, res, ok, err = f.choose(ctx, req, query, p)
		if err != nil || !ok {
			return res, err
		}
	}

	md, err := f.gateway.FetchMetadata(ctx, src)
	if err != nil {
		log.Printf("[WARN] [Selection] metadata for %s: %v", src.URL, err)
		md = track.Metadata{Title: query}
	}
	if md.Title == "" {
		md.Title = query
	}
	md.RequestedBy = req.UserName

	queued, pos, err := q.Enqueue(ctx, src, md, req.ChannelID)
	if err != nil {
		f.metrics.Selection("enqueue_failed")
		return Result{Kind: kind}, err
	}
	f.metrics.Selection("enqueued")
	log.Printf("[Selection] guild %s: %s queued %q at #%d", req.GuildID, req.UserName, md.Title, pos)
	return Result{Outcome: Enqueued, Kind: kind, Track: queued, Position: pos, Reason: Selected}, nil
}

// choose runs the search, present, wait and resolve steps. ok is false when
// the user never picked.
func (f *Flow) choose(ctx context.Context, req Request, query string, p Presenter) (track.Source, Result, bool, error) {
	abandoned := Result{Outcome: Abandoned, Kind: Search}

	candidates, err := f.gateway.Search(ctx, query)
	if err != nil {
		f.metrics.Selection("search_unavailable")
		return track.Source{}, Result{Kind: Search}, false, fmt.Errorf("%w: %w", ErrSearchUnavailable, err)
	}
	if len(candidates) == 0 {
		f.metrics.Selection("no_results")
		return track.Source{}, Result{Kind: Search}, false, ErrNoResults
	}
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	ticket := f.hub.Open(scopeOf(req), req.UserID, ids)

	ref, err := p.PresentChoices(ctx, candidates, ticket.Token())
	if err != nil {
		f.hub.Cancel(ticket)
		return track.Source{}, Result{Kind: Search}, false, fmt.Errorf("present choices: %w", err)
	}

	pick, waited := ticket.Wait(ctx, f.timeout)
	if waited != Selected {
		f.dismiss(ctx, p, ref)
		f.metrics.Selection(waited.String())
		log.Printf("[Selection] guild %s: selection for %q ended: %s", req.GuildID, query, waited)
		abandoned.Reason = waited
		return track.Source{}, abandoned, false, nil
	}

	var chosen track.Candidate
	for _, c := range candidates {
		if c.ID == pick.CandidateID {
			chosen = c
			break
		}
	}

	src, err := f.gateway.ResolveCandidate(ctx, chosen)
	f.dismiss(ctx, p, ref)
	if err != nil {
		f.metrics.Selection("resolve_failed")
		return track.Source{}, Result{Kind: Search}, false, fmt.Errorf("%w: %w", ErrResolveFailed, err)
	}
	return src, Result{}, true, nil
}

func (f *Flow) dismiss(ctx context.Context, p Presenter, ref MessageRef) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dismissTimeout)
	defer cancel()
	if err := p.Dismiss(dctx, ref); err != nil {
		log.Printf("[WARN] [Selection] dismiss choices %s: %v", ref.ID, err)
	}
}

// scopeOf is the invocation scope a newer search supersedes.
func scopeOf(req Request) string {
	return req.GuildID + "/" + req.UserID
}
