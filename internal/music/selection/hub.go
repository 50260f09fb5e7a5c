package selection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pick is a user's press on one of the presented choices.
type Pick struct {
	Token       string
	CandidateID string
	UserID      string
}

// Delivery tells the platform adapter what happened to a Pick.
type Delivery int

const (
	// Accepted means the pick was handed to a waiting flow.
	Accepted Delivery = iota
	// Stale means no flow is waiting on the token any more.
	Stale
	// Rejected means the flow exists but does not take this pick; it
	// keeps waiting.
	Rejected
)

func (d Delivery) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case Stale:
		return "stale"
	default:
		return "rejected"
	}
}

// WaitResult says how a Ticket wait ended.
type WaitResult int

const (
	Selected WaitResult = iota
	TimedOut
	Superseded
	Cancelled
)

func (w WaitResult) String() string {
	switch w {
	case Selected:
		return "selected"
	case TimedOut:
		return "timeout"
	case Superseded:
		return "superseded"
	default:
		return "cancelled"
	}
}

// Ticket is one open selection. It is consumed by exactly one Wait.
type Ticket struct {
	hub        *Hub
	token      string
	scope      string
	owner      string
	candidates map[string]struct{}

	picks      chan Pick
	superseded chan struct{}
	stopOnce   sync.Once
}

// Token is the correlation token the presented choices must carry.
func (t *Ticket) Token() string { return t.token }

// Wait blocks until a pick arrives, the timeout passes, a newer ticket for
// the same scope replaces this one, or ctx is done. The ticket is closed when
// Wait returns.
func (t *Ticket) Wait(ctx context.Context, timeout time.Duration) (Pick, WaitResult) {
	defer t.hub.close(t)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var res WaitResult
	select {
	case p := <-t.picks:
		return p, Selected
	case <-t.superseded:
		res = Superseded
	case <-timer.C:
		res = TimedOut
	case <-ctx.Done():
		res = Cancelled
	}
	// A pick accepted in the same instant still wins.
	select {
	case p := <-t.picks:
		return p, Selected
	default:
		return Pick{}, res
	}
}

func (t *Ticket) supersede() {
	t.stopOnce.Do(func() { close(t.superseded) })
}

// Hub routes picks from the platform to the flows waiting for them.
type Hub struct {
	mu            sync.Mutex
	byToken       map[string]*Ticket
	byScope       map[string]*Ticket
	requesterOnly bool
}

// NewHub returns a Hub. With requesterOnly set, only the user who opened a
// ticket may pick from it.
func NewHub(requesterOnly bool) *Hub {
	return &Hub{
		byToken:       make(map[string]*Ticket),
		byScope:       make(map[string]*Ticket),
		requesterOnly: requesterOnly,
	}
}

// Open starts a selection for scope under a fresh token. An earlier ticket
// for the same scope is superseded.
func (h *Hub) Open(scope, owner string, candidateIDs []string) *Ticket {
	t := &Ticket{
		hub:        h,
		token:      uuid.NewString(),
		scope:      scope,
		owner:      owner,
		candidates: make(map[string]struct{}, len(candidateIDs)),
		picks:      make(chan Pick, 1),
		superseded: make(chan struct{}),
	}
	for _, id := range candidateIDs {
		t.candidates[id] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.byScope[scope]; ok {
		delete(h.byToken, old.token)
		old.supersede()
	}
	h.byScope[scope] = t
	h.byToken[t.token] = t
	return t
}

// Deliver hands a pick to the ticket matching its token.
func (h *Hub) Deliver(p Pick) Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.byToken[p.Token]
	if !ok {
		return Stale
	}
	if _, ok := t.candidates[p.CandidateID]; !ok {
		return Rejected
	}
	if h.requesterOnly && t.owner != "" && p.UserID != t.owner {
		return Rejected
	}
	select {
	case t.picks <- p:
		// Later presses for the same token are stale from here on.
		delete(h.byToken, t.token)
		return Accepted
	default:
		return Stale
	}
}

// Cancel closes a ticket that will never be waited on.
func (h *Hub) Cancel(t *Ticket) { h.close(t) }

// Pending returns the number of tickets still waiting.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byScope)
}

func (h *Hub) close(t *Ticket) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.byToken[t.token]; ok && cur == t {
		delete(h.byToken, t.token)
	}
	if cur, ok := h.byScope[t.scope]; ok && cur == t {
		delete(h.byScope, t.scope)
	}
}
