package owner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/rpggio/downloadactivity/internal/repository"
)

// Resolver finds the true owner and owner-relative path of an accessed node.
type Resolver struct {
	nodes  NodeStore
	logger *slog.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(nodes NodeStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{nodes: nodes, logger: logger}
}

// Resolve looks up p in requestingUser's root and walks share indirection
// back to the owner's root. Nodes on remote shares are attributed to the
// requesting user, since their owner lives on another instance.
func (r *Resolver) Resolve(ctx context.Context, requestingUser, p string) (Resolution, error) {
	if requestingUser == "" {
		return Resolution{}, fmt.Errorf("%w: missing user", ErrInvalidPath)
	}
	clean, err := CleanPath(p)
	if err != nil {
		return Resolution{}, err
	}

	node, err := r.nodes.GetNode(ctx, requestingUser, clean)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Resolution{}, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return Resolution{}, fmt.Errorf("loading node: %w", err)
	}

	if node.Owner == requestingUser {
		return Resolution{
			Path:        clean,
			Owner:       requestingUser,
			FileID:      node.ID,
			IsContainer: node.IsContainer,
		}, nil
	}

	owner := node.Owner
	if node.Storage == StorageExternalShare {
		r.logger.Debug("remote share, attributing access to requesting user", "user", requestingUser, "path", clean)
		owner = requestingUser
	} else if err := r.nodes.InitMountPoints(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Resolution{}, fmt.Errorf("%w: owner %s", ErrNotFound, owner)
		}
		return Resolution{}, fmt.Errorf("mounting owner storage: %w", err)
	}

	nodes, err := r.nodes.GetNodesByID(ctx, owner, node.ID)
	if err != nil {
		return Resolution{}, fmt.Errorf("locating node %d: %w", node.ID, err)
	}
	if len(nodes) == 0 {
		return Resolution{}, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}

	found := nodes[0]
	return Resolution{
		Path:        found.Path,
		Owner:       owner,
		FileID:      found.ID,
		IsContainer: found.IsContainer,
	}, nil
}

// CleanPath normalises a user-root relative path. Empty paths, NUL bytes
// and parent references are rejected.
func CleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: contains NUL", ErrInvalidPath)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: parent reference in %q", ErrInvalidPath, p)
		}
	}
	return path.Clean("/" + p), nil
}
