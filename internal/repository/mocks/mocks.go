package mocks

import (
	"context"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, event *activity.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, affectedUser string, opts activity.ListActivityOptions) ([]activity.Event, error) {
	args := m.Called(ctx, affectedUser, opts)
	if list, ok := args.Get(0).([]activity.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Sink is a mock for activity.Sink.
type Sink struct {
	mock.Mock
}

func (m *Sink) Publish(ctx context.Context, event activity.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// NodeStore is a mock for owner.NodeStore.
type NodeStore struct {
	mock.Mock
}

func (m *NodeStore) GetNode(ctx context.Context, userID, path string) (*owner.Node, error) {
	args := m.Called(ctx, userID, path)
	if node, ok := args.Get(0).(*owner.Node); ok {
		return node, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NodeStore) GetNodesByID(ctx context.Context, userID string, id int64) ([]owner.Node, error) {
	args := m.Called(ctx, userID, id)
	if list, ok := args.Get(0).([]owner.Node); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NodeStore) InitMountPoints(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// UserDirectory is a mock for feed.UserDirectory.
type UserDirectory struct {
	mock.Mock
}

func (m *UserDirectory) DisplayName(ctx context.Context, uid string) (string, error) {
	args := m.Called(ctx, uid)
	return args.String(0), args.Error(1)
}
