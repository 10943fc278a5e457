package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/rpggio/downloadactivity/internal/metrics"
)

// partSuffix marks incomplete upload artifacts.
const partSuffix = ".part"

// OwnerResolver resolves canonical ownership of a path.
type OwnerResolver interface {
	Resolve(ctx context.Context, requestingUser, path string) (owner.Resolution, error)
}

// EventBuilder assembles activity events.
type EventBuilder interface {
	Build(req activity.BuildRequest) (*activity.Event, error)
}

// Publisher hands built events to the event store.
type Publisher interface {
	Publish(ctx context.Context, event *activity.Event) error
}

// LinkBuilder builds absolute links into the files viewer.
type LinkBuilder interface {
	DirectoryLink(dir, scrollTo string) string
}

// Service turns raw file-read notifications into published activity events.
type Service struct {
	resolver  OwnerResolver
	builder   EventBuilder
	publisher Publisher
	links     LinkBuilder
	logger    *slog.Logger
}

// NewService creates a new access service.
func NewService(resolver OwnerResolver, builder EventBuilder, publisher Publisher, links LinkBuilder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		resolver:  resolver,
		builder:   builder,
		publisher: publisher,
		links:     links,
		logger:    logger.With("app", activity.AppID),
	}
}

// ReadFile records that actor read path. It returns the published event, or
// nil when the access was suppressed or could not be recorded. Failures are
// logged and never returned: the caller's file operation must not fail
// because of activity bookkeeping.
func (s *Service) ReadFile(ctx context.Context, actor, path string, req RequestContext) *activity.Event {
	if strings.HasSuffix(path, partSuffix) {
		metrics.EventSuppressed("part_file")
		return nil
	}
	if actor == "" {
		s.logger.Info("anonymous read, handled by public link sharing", "path", path)
		metrics.EventSuppressed("anonymous")
		return nil
	}

	res, err := s.resolver.Resolve(ctx, actor, path)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, owner.ErrNotFound) || errors.Is(err, owner.ErrInvalidPath) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "resolving owner failed", "user", actor, "path", path, "error", err)
		metrics.EventSuppressed("resolve_failed")
		return nil
	}
	if res.Owner == "" {
		s.logger.Info("no owner found for node", "user", actor, "path", path)
		metrics.EventSuppressed("no_owner")
		return nil
	}

	self := res.Owner == actor
	decision, ok := Classify(res, self, req)
	if !ok {
		metrics.EventSuppressed("self_access")
		return nil
	}

	event, err := s.builder.Build(activity.BuildRequest{
		Owner:   res.Owner,
		Author:  actor,
		Kind:    decision.Kind,
		Subject: decision.Subject,
		Params: activity.SubjectParams{
			File:   activity.FileRef{ID: res.FileID, Path: res.Path},
			Actor:  actor,
			Client: DetectClient(req.UserAgent),
		},
		Link: s.links.DirectoryLink(decision.Link.Dir, decision.Link.ScrollTo),
	})
	if err != nil {
		s.logger.Error("building activity event failed", "user", actor, "path", res.Path, "error", err)
		metrics.EventSuppressed("invalid_event")
		return nil
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publishing activity event failed", "user", actor, "path", res.Path, "error", err)
		metrics.EventSuppressed("publish_failed")
		return nil
	}

	metrics.EventPublished(string(event.Kind))
	s.logger.Debug("activity published", "kind", event.Kind, "subject", event.Subject, "owner", event.AffectedUser, "author", actor)
	return event
}
