package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/content-lifecycle-api/internal/models"
)

// apiKeyRepo is the concrete implementation of APIKeyRepository
type apiKeyRepo struct {
	db querier
}

// NewAPIKeyRepo creates a new API key repository
func NewAPIKeyRepo(db querier) APIKeyRepository {
	return &apiKeyRepo{db: db}
}

func (r *apiKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	query := `INSERT INTO api_keys (label, key, active, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRowContext(ctx, query, key.Label, key.Key, key.Active, key.CreatedAt).Scan(&key.ID)
}

func (r *apiKeyRepo) List(ctx context.Context) ([]models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, active, created_at, last_used_at FROM api_keys ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		var lastUsed sql.NullInt64
		if err := rows.Scan(&k.ID, &k.Label, &k.Active, &k.CreatedAt, &lastUsed); err != nil {
			return nil, err
		}
		k.LastUsedAt = nullInt64Ptr(lastUsed)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepo) GetByKey(ctx context.Context, key string) (*models.APIKey, error) {
	var k models.APIKey
	var lastUsed sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, label, key, active, created_at, last_used_at FROM api_keys WHERE key = $1
	`, key).Scan(&k.ID, &k.Label, &k.Key, &k.Active, &k.CreatedAt, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	k.LastUsedAt = nullInt64Ptr(lastUsed)
	return &k, nil
}

func (r *apiKeyRepo) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE api_keys SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *apiKeyRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *apiKeyRepo) TouchLastUsed(ctx context.Context, id, at int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, at, id)
	return err
}
