package owner

import "context"

// NodeStore looks up nodes within user roots.
// GetNode returns repository.ErrNotFound when nothing exists at path;
// GetNodesByID returns an empty slice when the user cannot see the resource.
type NodeStore interface {
	GetNode(ctx context.Context, userID, path string) (*Node, error)
	GetNodesByID(ctx context.Context, userID string, id int64) ([]Node, error)
	InitMountPoints(ctx context.Context, userID string) error
}
