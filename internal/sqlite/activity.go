package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/downloadactivity/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity event and assigns its ID.
func (r *ActivityRepository) Log(ctx context.Context, event *activity.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Timestamp = event.Timestamp.UTC()

	params, err := json.Marshal(event.SubjectParams)
	if err != nil {
		return fmt.Errorf("failed to encode subject params: %w", err)
	}

	query := `
		INSERT INTO activity (
			app, type, affected_user, author, timestamp, subject,
			subject_params, object_type, object_id, object_name, link
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.App,
		string(event.Kind),
		event.AffectedUser,
		event.Author,
		event.Timestamp,
		string(event.Subject),
		string(params),
		event.Object.Type,
		event.Object.ID,
		event.Object.Path,
		event.Link,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		event.ID = id
	}

	return nil
}

// List returns the events of affectedUser, most recent first.
func (r *ActivityRepository) List(ctx context.Context, affectedUser string, opts activity.ListActivityOptions) ([]activity.Event, error) {
	query := `
		SELECT
			id, app, type, affected_user, author, timestamp, subject,
			subject_params, object_type, object_id, object_name, link
		FROM activity
		WHERE affected_user = ?
	`

	args := []interface{}{affectedUser}
	conditions := []string{}

	if opts.ObjectID != nil {
		conditions = append(conditions, "object_id = ?")
		args = append(args, *opts.ObjectID)
	}
	if opts.Kind != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*opts.Kind))
	}
	if opts.Author != "" {
		conditions = append(conditions, "author = ?")
		args = append(args, opts.Author)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY timestamp DESC, id DESC"

	// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	events := []activity.Event{}
	for rows.Next() {
		var event activity.Event
		var kind, subject, params string
		if err := rows.Scan(
			&event.ID,
			&event.App,
			&kind,
			&event.AffectedUser,
			&event.Author,
			&event.Timestamp,
			&subject,
			&params,
			&event.Object.Type,
			&event.Object.ID,
			&event.Object.Path,
			&event.Link,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		event.Kind = activity.Kind(kind)
		event.Subject = activity.SubjectKey(subject)
		if err := json.Unmarshal([]byte(params), &event.SubjectParams); err != nil {
			return nil, fmt.Errorf("failed to decode params of event %d: %w", event.ID, err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return events, nil
}
