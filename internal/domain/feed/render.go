package feed

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
)

// UserDirectory resolves display names. Unknown users yield repository.ErrNotFound.
type UserDirectory interface {
	DisplayName(ctx context.Context, uid string) (string, error)
}

// LinkBuilder builds the links attached to rendered parameters.
type LinkBuilder interface {
	FileLink(fileID int64) string
	ImagePath(app, image string) string
}

// Renderer turns stored events into readable subjects.
type Renderer struct {
	users      UserDirectory
	links      LinkBuilder
	requirePNG bool
}

// NewRenderer creates a Renderer. requirePNG selects PNG icons for clients
// that cannot display SVG.
func NewRenderer(users UserDirectory, links LinkBuilder, requirePNG bool) *Renderer {
	return &Renderer{users: users, links: links, requirePNG: requirePNG}
}

// Render renders one event. Events of another app or of an unknown kind
// yield activity.ErrUnsupportedEvent.
func (r *Renderer) Render(ctx context.Context, sess *Session, event activity.Event, mode Mode) (*Entry, error) {
	if event.App != activity.AppID {
		return nil, fmt.Errorf("%w: app %q", activity.ErrUnsupportedEvent, event.App)
	}
	if !event.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q", activity.ErrUnsupportedEvent, event.Kind)
	}

	params, err := r.parameters(ctx, sess, event)
	if err != nil {
		return nil, err
	}

	subject := Template(mode, event.Kind, event.IsSelf(), event.SubjectParams.Client)
	return &Entry{
		Event:         event,
		Timestamp:     event.Timestamp,
		ParsedSubject: parseSubject(subject, params),
		RichSubject:   subject,
		RichParams:    params,
		Icon:          r.icon(),
	}, nil
}

func (r *Renderer) parameters(ctx context.Context, sess *Session, event activity.Event) (map[string]Parameter, error) {
	if !event.Subject.Known() {
		return map[string]Parameter{}, nil
	}

	file := event.SubjectParams.File
	name, err := sess.displayName(ctx, r.users, event.SubjectParams.Actor)
	if err != nil {
		return nil, fmt.Errorf("resolving display name of %s: %w", event.SubjectParams.Actor, err)
	}

	// {file} reads as the base name in sentences; the canonical path stays
	// on the parameter for clients that need it.
	return map[string]Parameter{
		"file": {
			Type: "file",
			ID:   strconv.FormatInt(file.ID, 10),
			Name: path.Base(file.Path),
			Path: file.Path,
			Link: r.links.FileLink(file.ID),
		},
		"actor": {
			Type: "user",
			ID:   event.SubjectParams.Actor,
			Name: name,
		},
	}, nil
}

func (r *Renderer) icon() string {
	if r.requirePNG {
		return r.links.ImagePath("core", "actions/share.png")
	}
	return r.links.ImagePath("core", "actions/share.svg")
}

// parseSubject substitutes every {placeholder} with its parameter's display
// name, falling back to its ID. For files that is the base name, not Path.
func parseSubject(subject string, params map[string]Parameter) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		p := params[key]
		value := p.Name
		if value == "" {
			value = p.ID
		}
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(subject)
}
