package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rpggio/downloadactivity/internal/domain/activity"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity (
    id BIGSERIAL PRIMARY KEY,
    app TEXT NOT NULL,
    type TEXT NOT NULL,
    affected_user TEXT NOT NULL,
    author TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    subject TEXT NOT NULL,
    subject_params JSONB NOT NULL,
    object_type TEXT NOT NULL,
    object_id BIGINT NOT NULL,
    object_name TEXT NOT NULL,
    link TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_activity_user_time ON activity(affected_user, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_activity_object ON activity(object_type, object_id);
`

// Open connects to PostgreSQL and retries the ping with backoff.
func Open(ctx context.Context, dsn string, attempts int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}

	db.Close()
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}

// ActivityRepository implements activity.Repository for PostgreSQL
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// EnsureSchema creates the activity table when missing.
func (r *ActivityRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err = r.db.QueryRowContext(ctx, query,
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
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	return nil
}

// List returns the events of affectedUser, most recent first.
func (r *ActivityRepository) List(ctx context.Context, affectedUser string, opts activity.ListActivityOptions) ([]activity.Event, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT
			id, app, type, affected_user, author, timestamp, subject,
			subject_params, object_type, object_id, object_name, link
		FROM activity
		WHERE affected_user = $1`)

	args := []interface{}{affectedUser}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		b.WriteString(clause + "$" + strconv.Itoa(len(args)))
	}

	if opts.ObjectID != nil {
		add(" AND object_id = ", *opts.ObjectID)
	}
	if opts.Kind != nil {
		add(" AND type = ", string(*opts.Kind))
	}
	if opts.Author != "" {
		add(" AND author = ", opts.Author)
	}

	b.WriteString(" ORDER BY timestamp DESC, id DESC")

	if opts.Limit > 0 {
		add(" LIMIT ", opts.Limit)
	}
	if opts.Offset > 0 {
		add(" OFFSET ", opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	events := []activity.Event{}
	for rows.Next() {
		var event activity.Event
		var kind, subject string
		var params []byte
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
		if err := json.Unmarshal(params, &event.SubjectParams); err != nil {
			return nil, fmt.Errorf("failed to decode params of event %d: %w", event.ID, err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return events, nil
}
