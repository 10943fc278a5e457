package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/metrics"
)

// EventSource returns stored events for one user, most recent first.
type EventSource interface {
	GetRecentActivity(ctx context.Context, affectedUser string, opts activity.ListActivityOptions) ([]activity.Event, error)
}

// Request describes one page of a user's feed.
type Request struct {
	User    string
	Mode    Mode
	Options activity.ListActivityOptions
}

// Service renders activity feeds.
type Service struct {
	events   EventSource
	renderer *Renderer
	merger   *Merger
	logger   *slog.Logger
}

// NewService creates a new feed service.
func NewService(events EventSource, renderer *Renderer, merger *Merger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if merger == nil {
		merger = NewMerger(nil)
	}
	return &Service{events: events, renderer: renderer, merger: merger, logger: logger}
}

// Render loads a page of the user's feed and renders it.
func (s *Service) Render(ctx context.Context, req Request) ([]*Entry, error) {
	if req.User == "" {
		return nil, activity.ErrInvalidInput
	}
	events, err := s.events.GetRecentActivity(ctx, req.User, req.Options)
	if err != nil {
		return nil, fmt.Errorf("loading activity: %w", err)
	}
	return s.RenderEvents(ctx, events, req.Mode)
}

// RenderEvents renders events, which must be ordered most recent first, in a
// fresh session. Events that fail to render are logged and left out.
func (s *Service) RenderEvents(ctx context.Context, events []activity.Event, mode Mode) ([]*Entry, error) {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.After(events[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: events not ordered most recent first", activity.ErrInvalidInput)
		}
	}

	sess := NewSession()
	logger := s.logger.With("render_session", sess.ID)
	metrics.FeedRendered(string(mode))

	entries := make([]*Entry, 0, len(events))
	for _, event := range events {
		entry, err := s.renderer.Render(ctx, sess, event, mode)
		if err != nil {
			logger.Warn("skipping activity event", "app", activity.AppID, "event_id", event.ID, "error", err)
			metrics.FeedEntrySkipped("render_failed")
			continue
		}
		entries = s.appendMerged(sess, entries, entry, mode)
	}
	return entries, nil
}

// Merge runs a grouping pass over already rendered entries in a fresh session.
func (s *Service) Merge(entries []*Entry, mode Mode) []*Entry {
	sess := NewSession()
	out := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		out = s.appendMerged(sess, out, entry, mode)
	}
	return out
}

func (s *Service) appendMerged(sess *Session, out []*Entry, entry *Entry, mode Mode) []*Entry {
	var prev *Entry
	if len(out) > 0 {
		prev = out[len(out)-1]
	}
	merged := s.merger.MergeIfEligible(sess, entry, prev, mode)
	if prev != nil && merged.Child == prev {
		out[len(out)-1] = merged
		return out
	}
	return append(out, merged)
}
