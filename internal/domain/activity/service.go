package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	sinks  []Sink
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger, sinks ...Sink) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, sinks: sinks, logger: logger}
}

// Publish persists an event and forwards it to the configured sinks.
// Sink failures are logged; the event stays persisted.
func (s *Service) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return ErrInvalidInput
	}
	if err := s.repo.Log(ctx, event); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, *event); err != nil {
			s.logger.Warn("activity sink failed", "app", AppID, "event_id", event.ID, "error", err)
		}
	}
	return nil
}

// GetRecentActivity lists a user's activity events, most recent first.
func (s *Service) GetRecentActivity(ctx context.Context, affectedUser string, opts ListActivityOptions) ([]Event, error) {
	if affectedUser == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, affectedUser, opts)
}
