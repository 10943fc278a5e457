package activity

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// BuildRequest carries the classified access to be turned into an Event.
type BuildRequest struct {
	Owner     string
	Author    string
	Kind      Kind
	Subject   SubjectKey
	Params    SubjectParams
	Link      string
	Timestamp time.Time
}

// Builder assembles immutable activity events.
type Builder struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewBuilder creates a Builder. A nil clock defaults to time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{
		validate: validator.New(),
		now:      now,
	}
}

// Build assembles an Event. A missing app, subject or affected user, or a
// kind/subject mismatch, yields ErrInvalidEvent.
func (b *Builder) Build(req BuildRequest) (*Event, error) {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = b.now()
	}

	event := &Event{
		App:           AppID,
		Kind:          req.Kind,
		AffectedUser:  req.Owner,
		Author:        req.Author,
		Timestamp:     ts,
		Subject:       req.Subject,
		SubjectParams: req.Params,
		Object: ObjectRef{
			Type: ObjectTypeFiles,
			ID:   req.Params.File.ID,
			Path: req.Params.File.Path,
		},
		Link: req.Link,
	}

	if err := b.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if !Consistent(event.Kind, event.Subject) {
		return nil, fmt.Errorf("%w: subject %q does not match kind %q", ErrInvalidEvent, event.Subject, event.Kind)
	}
	return event, nil
}
