package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_PublishAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	sink := &mocks.Sink{}
	event := &activity.Event{
		App:          activity.AppID,
		Kind:         activity.KindFileDownloaded,
		AffectedUser: "alice",
		Author:       "bob",
		Subject:      activity.SubjectSharedFile,
		Timestamp:    time.Unix(100, 0),
	}

	repo.On("Log", ctx, event).Return(nil)
	sink.On("Publish", ctx, *event).Return(nil)
	repo.On("List", ctx, "alice", activity.ListActivityOptions{Limit: 10}).Return([]activity.Event{*event}, nil)

	svc := activity.NewService(repo, nil, sink)
	require.NoError(t, svc.Publish(ctx, event))
	events, err := svc.GetRecentActivity(ctx, "alice", activity.ListActivityOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	sink.AssertExpectations(t)
}

func TestActivityService_SinkFailureKeepsEvent(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	sink := &mocks.Sink{}
	repo.On("Log", ctx, mock.Anything).Return(nil)
	sink.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	svc := activity.NewService(repo, nil, sink)
	require.NoError(t, svc.Publish(ctx, &activity.Event{App: activity.AppID}))
}

func TestActivityService_Errors(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, mock.Anything).Return(errors.New("disk full"))

	svc := activity.NewService(repo, nil)
	require.ErrorIs(t, svc.Publish(ctx, nil), activity.ErrInvalidInput)
	require.Error(t, svc.Publish(ctx, &activity.Event{}))

	_, err := svc.GetRecentActivity(ctx, "", activity.ListActivityOptions{})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}
