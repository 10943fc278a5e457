package feed

import (
	"fmt"
	"time"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
)

// Mode selects the sentence family used for rendering.
type Mode string

const (
	// ModeShort is the compact sidebar form, the default for feeds filtered
	// to a single object.
	ModeShort Mode = "short"
	// ModeLong is the full sentence form.
	ModeLong Mode = "long"
)

// ParseMode parses a mode name. An empty name selects ModeShort when the feed
// is filtered to a single object and ModeLong otherwise.
func ParseMode(s string, filtered bool) (Mode, error) {
	switch Mode(s) {
	case "":
		if filtered {
			return ModeShort, nil
		}
		return ModeLong, nil
	case ModeLong:
		return ModeLong, nil
	case ModeShort:
		return ModeShort, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", activity.ErrInvalidInput, s)
}

// Parameter is a rich-subject placeholder value.
type Parameter struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Link string `json:"link,omitempty"`
}

// Entry is a rendered feed item. Child links the entry it absorbed when
// adjacent events were grouped.
type Entry struct {
	Event         activity.Event       `json:"event"`
	Timestamp     time.Time            `json:"timestamp"`
	ParsedSubject string               `json:"parsed_subject"`
	RichSubject   string               `json:"rich_subject"`
	RichParams    map[string]Parameter `json:"rich_params"`
	Icon          string               `json:"icon,omitempty"`
	Child         *Entry               `json:"child,omitempty"`
}

// Size returns the number of raw events grouped under e.
func (e *Entry) Size() int {
	n := 0
	for cur := e; cur != nil; cur = cur.Child {
		n++
	}
	return n
}
