package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/content-lifecycle-api/internal/models"
)

// auditRepo is the concrete implementation of AuditRepository
type auditRepo struct {
	db querier
}

// NewAuditRepo creates a new audit repository
func NewAuditRepo(db querier) AuditRepository {
	return &auditRepo{db: db}
}

// Append inserts one entry and assigns its id
func (r *auditRepo) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (actor, action, target_type, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		entry.Actor, entry.Action, entry.TargetType, int64PtrArg(entry.TargetID),
		entry.Details, entry.CreatedAt,
	).Scan(&entry.ID)
}

// List pages through entries newest first
func (r *auditRepo) List(ctx context.Context, filter models.AuditFilter, limit, offset int) ([]models.AuditLogEntry, int, error) {
	where := "TRUE"
	var args []interface{}
	if filter.Actor != "" {
		args = append(args, filter.Actor)
		where += fmt.Sprintf(" AND actor = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.TargetType != "" {
		args = append(args, filter.TargetType)
		where += fmt.Sprintf(" AND target_type = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, actor, action, target_type, target_id, details, created_at
		FROM audit_log WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		var targetID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.TargetType, &targetID, &e.Details, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.TargetID = nullInt64Ptr(targetID)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// DeleteBefore removes entries older than before, or every entry when nil
func (r *auditRepo) DeleteBefore(ctx context.Context, before *int64) (int64, error) {
	var result sql.Result
	var err error
	if before == nil {
		result, err = r.db.ExecContext(ctx, `DELETE FROM audit_log`)
	} else {
		result, err = r.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < $1`, *before)
	}
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
