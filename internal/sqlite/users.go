package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/downloadactivity/internal/repository"
)

// UserRepository stores users and the API keys that authenticate them.
type UserRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB, logger *slog.Logger) *UserRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &UserRepository{db: db, logger: logger}
}

// Create adds a user.
func (r *UserRepository) Create(ctx context.Context, id, displayName string) error {
	if id == "" {
		return fmt.Errorf("%w: user id is required", repository.ErrInvalidInput)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, display_name) VALUES (?, ?)`, id, displayName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s already exists", repository.ErrInvalidInput, id)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// DisplayName returns the display name of uid, or repository.ErrNotFound.
func (r *UserRepository) DisplayName(ctx context.Context, uid string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT display_name FROM users WHERE id = ?`, uid).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user %s: %w", uid, err)
	}
	return name, nil
}

// CreateAPIKey registers token for userID. Only its hash is stored.
func (r *UserRepository) CreateAPIKey(ctx context.Context, token, userID, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, description) VALUES (?, ?, ?)`,
		hashKey(token), userID, description)
	if err != nil {
		if isForeignKeyViolation(err) || isUniqueViolation(err) {
			return fmt.Errorf("%w: api key for %s: %v", repository.ErrInvalidInput, userID, err)
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// ResolveUser returns the user a bearer token belongs to and records its use.
func (r *UserRepository) ResolveUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", repository.ErrNotFound
	}

	hash := hashKey(token)
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	// A failed usage stamp does not reject a valid key.
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = CURRENT_TIMESTAMP WHERE key_hash = ?`, hash); err != nil {
		r.logger.Warn("recording api key use failed", "user", userID, "error", err)
	}
	return userID, nil
}

func hashKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
