package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/repository"
)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get retrieves a user's session with its linked project ids in link order
func (r *SessionRepository) Get(ctx context.Context, userID string) (*session.Session, error) {
	query := `
		SELECT
			user_id, is_online, is_editor_focused,
			focus_duration, total_duration, last_heartbeat, created_at
		FROM activity_sessions
		WHERE user_id = ?
	`

	var sess session.Session
	var lastHeartbeat, createdAt int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&sess.UserID,
		&sess.IsOnline,
		&sess.IsEditorFocused,
		&sess.FocusDuration,
		&sess.TotalDuration,
		&lastHeartbeat,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, storeError("failed to get session", err)
	}
	sess.LastHeartbeat = fromMillis(lastHeartbeat)
	sess.CreatedAt = fromMillis(createdAt)

	linked, err := r.linkedProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.LinkedProjectIDs = linked

	return &sess, nil
}

func (r *SessionRepository) linkedProjects(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT record_id
		FROM session_projects
		WHERE user_id = ?
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storeError("failed to list linked projects", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeError("failed to scan linked project", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error iterating linked projects", err)
	}
	return ids, nil
}

// UpdateHeartbeat overwrites the liveness fields and stamps last_heartbeat
func (r *SessionRepository) UpdateHeartbeat(ctx context.Context, userID string, hb session.Heartbeat, at time.Time) error {
	query := `
		UPDATE activity_sessions
		SET is_online = ?,
		    is_editor_focused = ?,
		    focus_duration = ?,
		    total_duration = ?,
		    last_heartbeat = ?
		WHERE user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		hb.IsOnline,
		hb.IsEditorFocused,
		hb.FocusDuration,
		hb.TotalDuration,
		toMillis(at),
		userID,
	)
	if err != nil {
		return storeError("failed to update heartbeat", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DemoteStale marks every session whose last heartbeat is older than cutoff
// as offline and unfocused in one statement. last_heartbeat is left as is.
// Sessions already offline and unfocused are not counted.
func (r *SessionRepository) DemoteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE activity_sessions
		SET is_online = 0,
		    is_editor_focused = 0
		WHERE last_heartbeat < ?
		  AND (is_online = 1 OR is_editor_focused = 1)
	`

	result, err := r.db.ExecContext(ctx, query, toMillis(cutoff))
	if err != nil {
		return 0, storeError("failed to demote stale sessions", err)
	}
	demoted, err := result.RowsAffected()
	if err != nil {
		return 0, storeError("failed to get rows affected", err)
	}
	return demoted, nil
}

func ensureSession(ctx context.Context, q querier, userID string, at time.Time) error {
	query := `
		INSERT INTO activity_sessions (user_id, last_heartbeat, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, query, userID, toMillis(at), toMillis(at)); err != nil {
		return storeError("failed to ensure session", err)
	}
	return nil
}
