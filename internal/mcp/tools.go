package mcp

import (
	"context"
	"net/url"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/downloadactivity/internal/domain/access"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/feed"
)

// registerTools adds the activity tools to server.
func registerTools(server *sdkmcp.Server, services Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "record_file_access",
		Description: "Record that the acting user read a file or folder. Returns the published activity event, or recorded=false when the access was not worth an event.",
	}, recordFileAccess(services.Access))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_activity_feed",
		Description: "Render the acting user's download activity feed, most recent first, with adjacent similar entries grouped.",
	}, getActivityFeed(services.Feed))
}

func recordFileAccess(svc AccessService) sdkmcp.ToolHandlerFor[RecordFileAccessParams, RecordFileAccessResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecordFileAccessParams) (*sdkmcp.CallToolResult, RecordFileAccessResult, error) {
		if in.Path == "" {
			return nil, RecordFileAccessResult{}, toolError(activity.ErrInvalidInput)
		}

		query := url.Values{}
		for k, v := range in.Query {
			query.Set(k, v)
		}

		event := svc.ReadFile(ctx, getUserID(ctx), in.Path, access.RequestContext{
			UserAgent: in.UserAgent,
			Query:     query,
			PathInfo:  in.PathInfo,
		})
		return nil, RecordFileAccessResult{Recorded: event != nil, Event: toEventView(event)}, nil
	}
}

func getActivityFeed(svc FeedService) sdkmcp.ToolHandlerFor[GetActivityFeedParams, GetActivityFeedResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetActivityFeedParams) (*sdkmcp.CallToolResult, GetActivityFeedResult, error) {
		user := getUserID(ctx)
		if user == "" {
			return nil, GetActivityFeedResult{}, toolError(errUnauthenticated)
		}

		mode, err := feed.ParseMode(in.Mode, in.ObjectID != nil)
		if err != nil {
			return nil, GetActivityFeedResult{}, toolError(err)
		}

		entries, err := svc.Render(ctx, feed.Request{
			User: user,
			Mode: mode,
			Options: activity.ListActivityOptions{
				ObjectID: in.ObjectID,
				Limit:    in.Limit,
				Offset:   in.Offset,
			},
		})
		if err != nil {
			return nil, GetActivityFeedResult{}, toolError(err)
		}
		return nil, GetActivityFeedResult{Entries: toFeedEntryViews(entries)}, nil
	}
}
