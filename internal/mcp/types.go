package mcp

import (
	"time"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/feed"
)

type RecordFileAccessParams struct {
	Path      string            `json:"path" jsonschema:"path of the file or folder, relative to the acting user's root"`
	PathInfo  string            `json:"path_info,omitempty" jsonschema:"path info of the triggering request, used to tell previews from other reads"`
	Query     map[string]string `json:"query,omitempty" jsonschema:"query parameters of the triggering request"`
	UserAgent string            `json:"user_agent,omitempty" jsonschema:"user agent of the triggering request"`
}

type RecordFileAccessResult struct {
	Recorded bool       `json:"recorded"`
	Event    *EventView `json:"event,omitempty"`
}

type GetActivityFeedParams struct {
	Mode     string `json:"mode,omitempty" jsonschema:"long (default) or short"`
	ObjectID *int64 `json:"object_id,omitempty" jsonschema:"only events about this file id"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of events to load"`
	Offset   int    `json:"offset,omitempty" jsonschema:"number of events to skip"`
}

type GetActivityFeedResult struct {
	Entries []FeedEntryView `json:"entries"`
}

// EventView is the wire form of a stored activity event.
type EventView struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	Subject      string `json:"subject"`
	AffectedUser string `json:"affected_user"`
	Author       string `json:"author"`
	Timestamp    string `json:"timestamp"`
	FileID       int64  `json:"file_id"`
	Path         string `json:"path"`
	Client       string `json:"client"`
	Link         string `json:"link,omitempty"`
}

// FeedEntryView is the wire form of a rendered feed entry. Grouped counts
// the events merged into it.
type FeedEntryView struct {
	Subject     string                   `json:"subject"`
	RichSubject string                   `json:"rich_subject"`
	RichParams  map[string]ParameterView `json:"rich_params"`
	Icon        string                   `json:"icon,omitempty"`
	Timestamp   string                   `json:"timestamp"`
	Type        string                   `json:"type"`
	ObjectID    int64                    `json:"object_id"`
	Link        string                   `json:"link,omitempty"`
	Grouped     int                      `json:"grouped"`
}

type ParameterView struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Link string `json:"link,omitempty"`
}

func toEventView(e *activity.Event) *EventView {
	if e == nil {
		return nil
	}
	return &EventView{
		ID:           e.ID,
		Type:         string(e.Kind),
		Subject:      string(e.Subject),
		AffectedUser: e.AffectedUser,
		Author:       e.Author,
		Timestamp:    e.Timestamp.UTC().Format(time.RFC3339),
		FileID:       e.Object.ID,
		Path:         e.Object.Path,
		Client:       string(e.SubjectParams.Client),
		Link:         e.Link,
	}
}

func toFeedEntryViews(entries []*feed.Entry) []FeedEntryView {
	views := make([]FeedEntryView, 0, len(entries))
	for _, entry := range entries {
		params := make(map[string]ParameterView, len(entry.RichParams))
		for key, p := range entry.RichParams {
			params[key] = ParameterView(p)
		}
		views = append(views, FeedEntryView{
			Subject:     entry.ParsedSubject,
			RichSubject: entry.RichSubject,
			RichParams:  params,
			Icon:        entry.Icon,
			Timestamp:   entry.Timestamp.UTC().Format(time.RFC3339),
			Type:        string(entry.Event.Kind),
			ObjectID:    entry.Event.Object.ID,
			Link:        entry.Event.Link,
			Grouped:     entry.Size(),
		})
	}
	return views
}
