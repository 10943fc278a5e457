package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/rpggio/downloadactivity/internal/domain/owner"
	"github.com/rpggio/downloadactivity/internal/repository"
)

// NodeRepository implements owner.NodeStore for SQLite. Nodes live in their
// owner's tree; shares are mounts of a node into a recipient's tree.
type NodeRepository struct {
	db *DB
}

// NewNodeRepository creates a new NodeRepository
func NewNodeRepository(db *DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// mount is a share of a node as seen by its recipient.
type mount struct {
	MountPath  string
	SourcePath string
	Owner      string
	Storage    owner.StorageKind
}

// CreateNode stores a file or folder owned by ownerID and returns its ID.
func (r *NodeRepository) CreateNode(ctx context.Context, ownerID, p string, isContainer bool) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO nodes (owner, path, is_container) VALUES (?, ?, ?)`,
		ownerID, p, isContainer)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: node %s already exists for %s", repository.ErrInvalidInput, p, ownerID)
		}
		return 0, fmt.Errorf("failed to create node: %w", err)
	}
	return result.LastInsertId()
}

// CreateMount shares node nodeID into the tree of recipient at mountPath.
func (r *NodeRepository) CreateMount(ctx context.Context, recipient string, nodeID int64, mountPath string, storage owner.StorageKind) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mounts (recipient, node_id, mount_path, storage) VALUES (?, ?, ?, ?)`,
		recipient, nodeID, mountPath, string(storage))
	if err != nil {
		if isForeignKeyViolation(err) || isUniqueViolation(err) {
			return fmt.Errorf("%w: mount %s for %s: %v", repository.ErrInvalidInput, mountPath, recipient, err)
		}
		return fmt.Errorf("failed to create mount: %w", err)
	}
	return nil
}

// GetNode resolves p within the tree of userID, following mounts.
func (r *NodeRepository) GetNode(ctx context.Context, userID, p string) (*owner.Node, error) {
	node, err := r.ownedNode(ctx, userID, p)
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	mounts, err := r.mounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	var best *mount
	for i := range mounts {
		if _, ok := within(p, mounts[i].MountPath); !ok {
			continue
		}
		if best == nil || len(mounts[i].MountPath) > len(best.MountPath) {
			best = &mounts[i]
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}

	rest, _ := within(p, best.MountPath)
	source, err := r.ownedNode(ctx, best.Owner, path.Join(best.SourcePath, rest))
	if err != nil {
		return nil, err
	}

	return &owner.Node{
		ID:          source.ID,
		Path:        p,
		Owner:       best.Owner,
		IsContainer: source.IsContainer,
		Storage:     best.Storage,
	}, nil
}

// GetNodesByID lists every path under which node id is visible to userID.
func (r *NodeRepository) GetNodesByID(ctx context.Context, userID string, id int64) ([]owner.Node, error) {
	var src owner.Node
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner, path, is_container FROM nodes WHERE id = ?`, id,
	).Scan(&src.ID, &src.Owner, &src.Path, &src.IsContainer)
	if errors.Is(err, sql.ErrNoRows) {
		return []owner.Node{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node %d: %w", id, err)
	}
	src.Storage = owner.StorageLocal

	nodes := []owner.Node{}
	if src.Owner == userID {
		nodes = append(nodes, src)
	}

	mounts, err := r.mounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range mounts {
		if m.Owner != src.Owner {
			continue
		}
		rest, ok := within(src.Path, m.SourcePath)
		if !ok {
			continue
		}
		nodes = append(nodes, owner.Node{
			ID:          src.ID,
			Path:        path.Join(m.MountPath, rest),
			Owner:       src.Owner,
			IsContainer: src.IsContainer,
			Storage:     m.Storage,
		})
	}

	return nodes, nil
}

// InitMountPoints prepares the tree of userID. Mounts are stored eagerly, so
// this only checks that the user exists.
func (r *NodeRepository) InitMountPoints(ctx context.Context, userID string) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&count); err != nil {
		return fmt.Errorf("failed to look up user %s: %w", userID, err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *NodeRepository) ownedNode(ctx context.Context, userID, p string) (*owner.Node, error) {
	node := owner.Node{Owner: userID, Path: p, Storage: owner.StorageLocal}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, is_container FROM nodes WHERE owner = ? AND path = ?`, userID, p,
	).Scan(&node.ID, &node.IsContainer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", p, err)
	}
	return &node, nil
}

func (r *NodeRepository) mounts(ctx context.Context, recipient string) ([]mount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.mount_path, n.path, n.owner, m.storage
		FROM mounts m
		JOIN nodes n ON n.id = m.node_id
		WHERE m.recipient = ?
	`, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to list mounts of %s: %w", recipient, err)
	}
	defer rows.Close()

	var mounts []mount
	for rows.Next() {
		var m mount
		var storage string
		if err := rows.Scan(&m.MountPath, &m.SourcePath, &m.Owner, &storage); err != nil {
			return nil, fmt.Errorf("failed to scan mount: %w", err)
		}
		m.Storage = owner.StorageKind(storage)
		mounts = append(mounts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mount rows: %w", err)
	}
	return mounts, nil
}

// within reports whether p lies at or below root and returns the remainder.
func within(p, root string) (string, bool) {
	if p == root {
		return "", true
	}
	if root == "/" {
		return strings.TrimPrefix(p, "/"), strings.HasPrefix(p, "/")
	}
	if strings.HasPrefix(p, root+"/") {
		return p[len(root)+1:], true
	}
	return "", false
}
