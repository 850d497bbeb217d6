package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const selectProject = `
	SELECT record_id, project_path, structure_envelope, created_at, updated_at
	FROM project_records
`

// Get retrieves a project record by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Record, error) {
	return getProject(ctx, r.db, selectProject+` WHERE record_id = ?`, id)
}

// GetByPath retrieves a project record by its unique path
func (r *ProjectRepository) GetByPath(ctx context.Context, projectPath string) (*project.Record, error) {
	return getProject(ctx, r.db, selectProject+` WHERE project_path = ?`, projectPath)
}

func getProject(ctx context.Context, q querier, query string, arg string) (*project.Record, error) {
	var rec project.Record
	var createdAt, updatedAt int64
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&rec.ID,
		&rec.ProjectPath,
		&rec.Envelope,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, storeError("failed to get project", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

// ListByIDs returns the records whose ids appear in ids. Unknown ids are skipped.
func (r *ProjectRepository) ListByIDs(ctx context.Context, ids []string) ([]project.Record, error) {
	if len(ids) == 0 {
		return []project.Record{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, selectProject+` WHERE record_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, storeError("failed to list projects", err)
	}
	defer rows.Close()

	records := []project.Record{}
	for rows.Next() {
		var rec project.Record
		var createdAt, updatedAt int64
		if err := rows.Scan(&rec.ID, &rec.ProjectPath, &rec.Envelope, &createdAt, &updatedAt); err != nil {
			return nil, storeError("failed to scan project", err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		rec.UpdatedAt = fromMillis(updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error iterating project rows", err)
	}
	return records, nil
}

// CreateLinked inserts rec and links it to userID's session in one
// transaction, creating the session first if needed. If the path is
// already taken, either before the insert or by a concurrent insert that
// won the race, the existing record is returned with created=false.
func (r *ProjectRepository) CreateLinked(ctx context.Context, rec *project.Record, userID string, at time.Time) (*project.Record, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, storeError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	existing, err := getProject(ctx, tx, selectProject+` WHERE project_path = ?`, rec.ProjectPath)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	if err := ensureSession(ctx, tx, userID, at); err != nil {
		return nil, false, err
	}

	insert := `
		INSERT INTO project_records (record_id, project_path, structure_envelope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insert,
		rec.ID,
		rec.ProjectPath,
		rec.Envelope,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
	)
	if err != nil {
		// Release the connection before re-reading the winner's row.
		_ = tx.Rollback()
		existing, handled, getErr := r.existingOnDuplicatePath(ctx, err, rec.ProjectPath)
		if handled {
			return existing, false, getErr
		}
		return nil, false, storeError("failed to create project", err)
	}

	link := `
		INSERT INTO session_projects (user_id, record_id)
		VALUES (?, ?)
		ON CONFLICT(user_id, record_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, link, userID, rec.ID); err != nil {
		return nil, false, storeError("failed to link project", err)
	}

	touch := `UPDATE activity_sessions SET last_heartbeat = ? WHERE user_id = ?`
	if _, err := tx.ExecContext(ctx, touch, toMillis(at), userID); err != nil {
		return nil, false, storeError("failed to refresh heartbeat", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, storeError("failed to commit transaction", err)
	}

	stored := *rec
	return &stored, true, nil
}

// existingOnDuplicatePath resolves an insert that lost a race on the unique
// project path by loading the record that won. handled is false when
// insertErr is not a path conflict.
func (r *ProjectRepository) existingOnDuplicatePath(ctx context.Context, insertErr error, projectPath string) (*project.Record, bool, error) {
	if !isUniqueViolation(insertErr) || !strings.Contains(insertErr.Error(), "project_path") {
		return nil, false, nil
	}
	existing, err := r.GetByPath(ctx, projectPath)
	if err != nil {
		return nil, true, err
	}
	return existing, true, nil
}

// UpdateEnvelope replaces a project's stored structure
func (r *ProjectRepository) UpdateEnvelope(ctx context.Context, id, envelope string, at time.Time) error {
	query := `
		UPDATE project_records
		SET structure_envelope = ?, updated_at = ?
		WHERE record_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, envelope, toMillis(at), id)
	if err != nil {
		return storeError("failed to update project", err)
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
