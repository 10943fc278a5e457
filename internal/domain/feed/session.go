package feed

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/repository"
)

// Session holds the state of one feed rendering pass: the display names
// resolved so far and the client kind of the last rendered entry. A Session
// must not be shared between passes.
type Session struct {
	ID           string
	lastClient   activity.ClientKind
	displayNames map[string]string
}

// NewSession starts a rendering pass.
func NewSession() *Session {
	return &Session{
		ID:           uuid.NewString(),
		displayNames: make(map[string]string),
	}
}

// displayName resolves uid once per session. Unknown users render as their id.
func (s *Session) displayName(ctx context.Context, users UserDirectory, uid string) (string, error) {
	if name, ok := s.displayNames[uid]; ok {
		return name, nil
	}
	name, err := users.DisplayName(ctx, uid)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if name == "" {
		name = uid
	}
	s.displayNames[uid] = name
	return name, nil
}
