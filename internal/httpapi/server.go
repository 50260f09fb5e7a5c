// Package httpapi serves the read-only ops endpoints: health, metrics and a
// JSON view of guild queues.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keshon/jukebox/internal/music/session"
	"github.com/keshon/jukebox/internal/observability"
)

const queueReadTimeout = 5 * time.Second

type Server struct {
	sessions *session.Registry
	metrics  *observability.Metrics
}

func New(sessions *session.Registry, metrics *observability.Metrics) *Server {
	return &Server{sessions: sessions, metrics: metrics}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/v1/guilds/{guildID}/queue", s.handleQueue)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type queueTrack struct {
	Position        int    `json:"position"`
	ID              uint64 `json:"id"`
	Title           string `json:"title"`
	DurationSeconds int64  `json:"duration_seconds"`
	RequestedBy     string `json:"requested_by,omitempty"`
	URL             string `json:"url"`
	State           string `json:"state"`
}

type queueResponse struct {
	GuildID   string       `json:"guild_id"`
	ChannelID string       `json:"channel_id"`
	Paused    bool         `json:"paused"`
	Page      int          `json:"page"`
	PageSize  int          `json:"page_size"`
	Total     int          `json:"total"`
	Tracks    []queueTrack `json:"tracks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	guildID := strings.TrimSpace(chi.URLParam(r, "guildID"))
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
			return
		}
		page = n
	}

	sess, err := s.sessions.Lookup(guildID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queueReadTimeout)
	defer cancel()

	snap, err := sess.Snapshot(ctx)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	if len(snap.Tracks) == 0 {
		s.respondSessionError(w, session.ErrEmptyQueue)
		return
	}
	entries := snap.Page(page - 1)

	resp := queueResponse{
		GuildID:   snap.GuildID,
		ChannelID: snap.ChannelID,
		Paused:    snap.Paused,
		Page:      page,
		PageSize:  session.PageSize,
		Total:     len(snap.Tracks),
		Tracks:    make([]queueTrack, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Tracks = append(resp.Tracks, queueTrack{
			Position:        e.Position,
			ID:              e.Track.ID,
			Title:           e.Track.Metadata.Title,
			DurationSeconds: int64(e.Track.Metadata.Duration / time.Second),
			RequestedBy:     e.Track.Metadata.RequestedBy,
			URL:             e.Track.Source.URL,
			State:           e.Track.State.String(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrEmptyQueue):
		respondError(w, http.StatusNotFound, "empty_queue", err.Error())
	case errors.Is(err, session.ErrNoActiveSession):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, "busy", "queue is busy")
	default:
		log.Printf("[ERR] [HTTP] queue read: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
