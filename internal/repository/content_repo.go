package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/validation"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// lifecycleOps implements ContentRepository for one table
type lifecycleOps struct {
	db    querier
	kind  models.Kind
	table string
	// assetColumns are returned by purges so files can be removed afterwards
	assetColumns []string
}

func (o *lifecycleOps) exec(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := o.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// SoftDelete sets deleted_at on an active row
func (o *lifecycleOps) SoftDelete(ctx context.Context, id, at int64) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, o.table)
	return o.exec(ctx, query, at, id)
}

// Restore clears deleted_at; publish_at is left as it was
func (o *lifecycleOps) Restore(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL`, o.table)
	ok, err := o.exec(ctx, query, id)
	if isUniqueViolation(err) {
		return false, apperrors.Conflict("restoring %s %d would duplicate an active slug", o.kind, id)
	}
	return ok, err
}

// Promote clears a due publish_at on an active row
func (o *lifecycleOps) Promote(ctx context.Context, id, now int64) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET publish_at = NULL
		WHERE id = $1 AND publish_at IS NOT NULL AND publish_at <= $2 AND deleted_at IS NULL
	`, o.table)
	return o.exec(ctx, query, id, now)
}

func (o *lifecycleOps) returning() string {
	cols := "id, title"
	for _, c := range o.assetColumns {
		cols += ", " + c
	}
	return cols
}

func (o *lifecycleOps) scanPurged(scan func(dest ...interface{}) error) (*models.PurgedItem, error) {
	item := &models.PurgedItem{Kind: o.kind}
	paths := make([]sql.NullString, len(o.assetColumns))
	dest := []interface{}{&item.ID, &item.Title}
	for i := range paths {
		dest = append(dest, &paths[i])
	}
	if err := scan(dest...); err != nil {
		return nil, err
	}
	for _, p := range paths {
		if p.Valid && p.String != "" {
			item.Assets = append(item.Assets, p.String)
		}
	}
	return item, nil
}

// Purge removes a row in any state, returning nil if it does not exist
func (o *lifecycleOps) Purge(ctx context.Context, id int64) (*models.PurgedItem, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, o.table, o.returning())
	item, err := o.scanPurged(o.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// PurgeDeleted removes every soft-deleted row
func (o *lifecycleOps) PurgeDeleted(ctx context.Context) ([]models.PurgedItem, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE deleted_at IS NOT NULL RETURNING %s`, o.table, o.returning())
	rows, err := o.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purged []models.PurgedItem
	for rows.Next() {
		item, err := o.scanPurged(rows.Scan)
		if err != nil {
			return nil, err
		}
		purged = append(purged, *item)
	}
	return purged, rows.Err()
}

// DueForPublish lists active rows whose publish time has arrived
func (o *lifecycleOps) DueForPublish(ctx context.Context, now int64) ([]int64, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE publish_at IS NOT NULL AND publish_at <= $1 AND deleted_at IS NULL
		ORDER BY publish_at, id
	`, o.table)
	rows, err := o.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListDeleted returns the table's share of the recycle bin
func (o *lifecycleOps) ListDeleted(ctx context.Context) ([]models.RecycledItem, error) {
	query := fmt.Sprintf(`
		SELECT id, title, deleted_at, publish_at FROM %s
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, id DESC
	`, o.table)
	rows, err := o.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.RecycledItem
	for rows.Next() {
		item := models.RecycledItem{Kind: o.kind}
		var publishAt sql.NullInt64
		if err := rows.Scan(&item.ID, &item.Title, &item.DeletedAt, &publishAt); err != nil {
			return nil, err
		}
		item.PublishAt = nullInt64Ptr(publishAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindByTags locks and returns every row carrying at least one of the tags
func (o *lifecycleOps) FindByTags(ctx context.Context, tags []string) ([]models.TaggedRow, error) {
	query := fmt.Sprintf(`
		SELECT id, tags FROM %s
		WHERE string_to_array(tags, ',') && $1::text[]
		ORDER BY id
		FOR UPDATE
	`, o.table)
	rows, err := o.db.QueryContext(ctx, query, pq.Array(tags))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []models.TaggedRow
	for rows.Next() {
		var row models.TaggedRow
		var tagsStr string
		if err := rows.Scan(&row.ID, &tagsStr); err != nil {
			return nil, err
		}
		row.Tags = validation.SplitTags(tagsStr)
		found = append(found, row)
	}
	return found, rows.Err()
}

// UpdateTags overwrites a row's tag set
func (o *lifecycleOps) UpdateTags(ctx context.Context, id int64, tags []string) error {
	query := fmt.Sprintf(`UPDATE %s SET tags = $1 WHERE id = $2`, o.table)
	ok, err := o.exec(ctx, query, validation.JoinTags(tags), id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %d vanished during tag rewrite", o.kind, id)
	}
	return nil
}

// TagCounts counts tag usage across active rows
func (o *lifecycleOps) TagCounts(ctx context.Context) ([]models.TagCount, error) {
	query := fmt.Sprintf(`
		SELECT tag, COUNT(*) FROM %s, unnest(string_to_array(tags, ',')) AS tag
		WHERE deleted_at IS NULL AND tags <> ''
		GROUP BY tag
		ORDER BY COUNT(*) DESC, tag
	`, o.table)
	rows, err := o.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func int64PtrArg(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func stringPtrArg(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// listFilter builds the shared tag/category predicate for listings,
// numbering placeholders from next.
func listFilter(opts models.ListOptions, next int) (string, []interface{}) {
	clause := ""
	var args []interface{}
	if opts.Tag != "" {
		clause += fmt.Sprintf(" AND $%d = ANY(string_to_array(tags, ','))", next)
		args = append(args, validation.NormalizeTag(opts.Tag))
		next++
	}
	if opts.Category != "" {
		clause += fmt.Sprintf(" AND category = $%d", next)
		args = append(args, opts.Category)
	}
	return clause, args
}

// setClause accumulates "column = $n" assignments for a partial update.
// Column names come from the callers' fixed switch, never from input.
type setClause struct {
	assignments []string
	args        []interface{}
}

func newSetClause(updatedAt int64) *setClause {
	set := &setClause{}
	set.add("updated_at", updatedAt)
	return set
}

func (s *setClause) add(column string, value interface{}) {
	s.args = append(s.args, value)
	s.assignments = append(s.assignments, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setClause) build(table string, id int64) (string, []interface{}) {
	args := append(s.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(s.assignments, ", "), len(args))
	return query, args
}
