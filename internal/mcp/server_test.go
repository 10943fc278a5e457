package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/downloadactivity/internal/domain/access"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/feed"
	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/stretchr/testify/require"
)

type accessStub struct {
	readFn func(context.Context, string, string, access.RequestContext) *activity.Event
}

func (a accessStub) ReadFile(ctx context.Context, actor, path string, req access.RequestContext) *activity.Event {
	return a.readFn(ctx, actor, path, req)
}

type feedStub struct {
	renderFn func(context.Context, feed.Request) ([]*feed.Entry, error)
}

func (f feedStub) Render(ctx context.Context, req feed.Request) ([]*feed.Entry, error) {
	return f.renderFn(ctx, req)
}

type resolverStub struct{}

func (resolverStub) ResolveUser(context.Context, string) (string, error) {
	return "", errors.New("no tokens here")
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(cfg)
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func decode(t *testing.T, res *sdkmcp.CallToolResult, out any) {
	t.Helper()
	require.False(t, res.IsError, "tool returned error: %s", resultText(res))
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func resultText(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func sampleEvent() *activity.Event {
	return &activity.Event{
		ID:           5,
		App:          activity.AppID,
		Kind:         activity.KindFileDownloaded,
		AffectedUser: "alice",
		Author:       "bob",
		Timestamp:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Subject:      activity.SubjectSharedFile,
		SubjectParams: activity.SubjectParams{
			File:   activity.FileRef{ID: 42, Path: "/Photos/cat.png"},
			Actor:  "bob",
			Client: activity.ClientWeb,
		},
		Object: activity.ObjectRef{Type: activity.ObjectTypeFiles, ID: 42, Path: "/Photos/cat.png"},
		Link:   "https://cloud.example.com/apps/files/?dir=%2FPhotos&scrollto=cat.png",
	}
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, Config{Services: Services{}, TransportMode: "stdio"})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{"record_file_access", "get_activity_feed"}, names)
}

func TestServer_RecordFileAccess(t *testing.T) {
	var gotActor, gotPath string
	var gotReq access.RequestContext
	services := Services{Access: accessStub{readFn: func(_ context.Context, actor, path string, req access.RequestContext) *activity.Event {
		gotActor, gotPath, gotReq = actor, path, req
		return sampleEvent()
	}}}
	session := connect(t, Config{Services: services, TransportMode: "stdio", DefaultUser: "bob"})

	res := callTool(t, session, "record_file_access", map[string]any{
		"path":       "/Photos/cat.png",
		"query":      map[string]any{"downloadStartSecret": "abc"},
		"user_agent": "Mozilla/5.0 (Android) Nextcloud-android/3.0",
	})

	var out RecordFileAccessResult
	decode(t, res, &out)
	require.True(t, out.Recorded)
	require.Equal(t, int64(42), out.Event.FileID)
	require.Equal(t, "file_downloaded", out.Event.Type)
	require.Equal(t, "2024-05-01T10:00:00Z", out.Event.Timestamp)

	require.Equal(t, "bob", gotActor)
	require.Equal(t, "/Photos/cat.png", gotPath)
	require.Equal(t, "abc", gotReq.Query.Get(access.DownloadStartParam))
	require.Equal(t, "Mozilla/5.0 (Android) Nextcloud-android/3.0", gotReq.UserAgent)
}

func TestServer_RecordFileAccessSuppressed(t *testing.T) {
	services := Services{Access: accessStub{readFn: func(context.Context, string, string, access.RequestContext) *activity.Event {
		return nil
	}}}
	session := connect(t, Config{Services: services, TransportMode: "stdio", DefaultUser: "alice"})

	var out RecordFileAccessResult
	decode(t, callTool(t, session, "record_file_access", map[string]any{"path": "/notes.txt"}), &out)
	require.False(t, out.Recorded)
	require.Nil(t, out.Event)
}

func TestServer_RecordFileAccessMissingPath(t *testing.T) {
	services := Services{Access: accessStub{readFn: func(context.Context, string, string, access.RequestContext) *activity.Event {
		t.Error("ReadFile must not be called")
		return nil
	}}}
	session := connect(t, Config{Services: services, TransportMode: "stdio", DefaultUser: "alice"})

	res := callTool(t, session, "record_file_access", map[string]any{"path": ""})
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "INVALID_INPUT")
}

func TestServer_GetActivityFeed(t *testing.T) {
	event := *sampleEvent()
	older := event
	older.ID = 4
	older.Author = "carol"

	var gotReq feed.Request
	services := Services{Feed: feedStub{renderFn: func(_ context.Context, req feed.Request) ([]*feed.Entry, error) {
		gotReq = req
		child := &feed.Entry{Event: older, Timestamp: older.Timestamp}
		return []*feed.Entry{{
			Event:         event,
			Timestamp:     event.Timestamp,
			ParsedSubject: "Downloaded by Bob and carol (via browser)",
			RichSubject:   "Downloaded by {actor2} and {actor1} (via browser)",
			RichParams: map[string]feed.Parameter{
				"actor1": {Type: "user", ID: "bob", Name: "Bob"},
				"actor2": {Type: "user", ID: "carol", Name: "carol"},
			},
			Icon:  "https://cloud.example.com/core/img/actions/share.svg",
			Child: child,
		}}, nil
	}}}
	session := connect(t, Config{Services: services, TransportMode: "stdio", DefaultUser: "alice"})

	var out GetActivityFeedResult
	decode(t, callTool(t, session, "get_activity_feed", map[string]any{"mode": "short", "object_id": 42, "limit": 20}), &out)

	require.Len(t, out.Entries, 1)
	entry := out.Entries[0]
	require.Equal(t, "Downloaded by Bob and carol (via browser)", entry.Subject)
	require.Equal(t, 2, entry.Grouped)
	require.Equal(t, "Bob", entry.RichParams["actor1"].Name)
	require.Equal(t, int64(42), entry.ObjectID)

	require.Equal(t, "alice", gotReq.User)
	require.Equal(t, feed.ModeShort, gotReq.Mode)
	require.NotNil(t, gotReq.Options.ObjectID)
	require.Equal(t, int64(42), *gotReq.Options.ObjectID)
	require.Equal(t, 20, gotReq.Options.Limit)
}

func TestServer_GetActivityFeedErrors(t *testing.T) {
	services := Services{Feed: feedStub{renderFn: func(context.Context, feed.Request) ([]*feed.Entry, error) {
		return nil, fmt.Errorf("loading activity: %w", errors.New("disk on fire"))
	}}}

	t.Run("no user", func(t *testing.T) {
		session := connect(t, Config{Services: services, TransportMode: "stdio"})
		res := callTool(t, session, "get_activity_feed", map[string]any{})
		require.True(t, res.IsError)
		require.Contains(t, resultText(res), "UNAUTHENTICATED")
	})

	t.Run("bad mode", func(t *testing.T) {
		session := connect(t, Config{Services: services, TransportMode: "stdio", DefaultUser: "alice"})
		res := callTool(t, session, "get_activity_feed", map[string]any{"mode": "medium"})
		require.True(t, res.IsError)
		require.Contains(t, resultText(res), "INVALID_INPUT")
	})

	t.Run("render failure", func(t *testing.T) {
		session := connect(t, Config{Services: services, TransportMode: "stdio", DefaultUser: "alice"})
		res := callTool(t, session, "get_activity_feed", map[string]any{})
		require.True(t, res.IsError)
		require.Contains(t, resultText(res), "disk on fire")
	})
}

func TestServer_AuthRequiresHeaders(t *testing.T) {
	session := connect(t, Config{
		Services:      Services{},
		Resolver:      resolverStub{},
		AuthEnabled:   true,
		TransportMode: "http",
	})

	_, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "get_activity_feed",
		Arguments: map[string]any{},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}

func TestServer_DocResources(t *testing.T) {
	session := connect(t, Config{Services: Services{}, TransportMode: "stdio"})

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "activity://docs/subjects"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "Shared file {file} was downloaded by {actor} via the browser")
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("wrap: %w", activity.ErrInvalidInput), "INVALID_INPUT"},
		{owner.ErrInvalidPath, "INVALID_INPUT"},
		{fmt.Errorf("wrap: %w", owner.ErrNotFound), "NOT_FOUND"},
		{activity.ErrUnsupportedEvent, "UNSUPPORTED_EVENT"},
		{errUnauthenticated, "UNAUTHENTICATED"},
	}
	for _, tt := range tests {
		apiErr := MapError(tt.err)
		require.NotNil(t, apiErr, "%v", tt.err)
		require.Equal(t, tt.code, apiErr.Code)
	}

	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("other")))
}
