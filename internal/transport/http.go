package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/downloadactivity/internal/domain/access"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/feed"
	"github.com/rpggio/downloadactivity/internal/metrics"
)

// maxBodyBytes caps hook payloads.
const maxBodyBytes = 1 << 20

// AccessRecorder records file reads.
type AccessRecorder interface {
	ReadFile(ctx context.Context, actor, path string, req access.RequestContext) *activity.Event
}

// FeedRenderer renders a user's activity feed.
type FeedRenderer interface {
	Render(ctx context.Context, req feed.Request) ([]*feed.Entry, error)
}

// Server wires HTTP handlers.
type Server struct {
	access AccessRecorder
	feeds  FeedRenderer
	logger *slog.Logger
}

// FileReadRequest is the body of POST /hooks/file-read.
type FileReadRequest struct {
	Path     string            `json:"path"`
	PathInfo string            `json:"path_info"`
	Query    map[string]string `json:"query"`
}

// FeedResponse is the body of GET /activity.
type FeedResponse struct {
	Entries []*feed.Entry `json:"entries"`
}

// NewServer creates an HTTP server router with middleware. authMiddleware
// guards the hook and feed routes; health and metrics stay open.
func NewServer(recorder AccessRecorder, feeds FeedRenderer, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)

	srv := &Server{access: recorder, feeds: feeds, logger: logger}

	r.Get("/health", srv.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/hooks/file-read", srv.handleFileRead)
		r.Get("/activity", srv.handleActivity)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleFileRead(w http.ResponseWriter, r *http.Request) {
	var body FileReadRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Path == "" {
		writeError(w, r, http.StatusBadRequest, "path is required")
		return
	}

	// Anonymous reads reach ReadFile, which skips them.
	actor, _ := UserFromContext(r.Context())

	query := url.Values{}
	for k, v := range body.Query {
		query.Set(k, v)
	}

	event := s.access.ReadFile(r.Context(), actor, body.Path, access.RequestContext{
		UserAgent: r.UserAgent(),
		Query:     query,
		PathInfo:  body.PathInfo,
	})
	if event == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok || user == "" {
		writeError(w, r, http.StatusUnauthorized, "missing user")
		return
	}

	params := r.URL.Query()
	var (
		opts activity.ListActivityOptions
		err  error
	)
	if opts.Limit, err = intParam(params, "limit"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Offset, err = intParam(params, "offset"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if raw := params.Get("object_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid object_id")
			return
		}
		opts.ObjectID = &id
	}

	mode, err := feed.ParseMode(params.Get("mode"), opts.ObjectID != nil)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.feeds.Render(r.Context(), feed.Request{User: user, Mode: mode, Options: opts})
	if err != nil {
		if errors.Is(err, activity.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("rendering feed failed", "user", user, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to render activity")
		return
	}
	if entries == nil {
		entries = []*feed.Entry{}
	}
	writeJSON(w, http.StatusOK, FeedResponse{Entries: entries})
}

func intParam(params url.Values, name string) (int, error) {
	raw := params.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	id, _ := RequestIDFromContext(r.Context())
	writeJSON(w, status, errorBody{Error: message, RequestID: id})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
