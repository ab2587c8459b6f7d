package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/validation"
)

const mediaColumns = `id, title, media_type, description, youtube_id, original_path, thumb_path, web_path,
	is_private, metadata, tags, category, created_at, updated_at, publish_at, deleted_at`

// mediaRepo is the concrete implementation of MediaRepository
type mediaRepo struct {
	*lifecycleOps
	db querier
}

// NewMediaRepo creates a new media repository
func NewMediaRepo(db querier) MediaRepository {
	return &mediaRepo{
		lifecycleOps: &lifecycleOps{
			db:           db,
			kind:         models.KindMedia,
			table:        "media",
			assetColumns: []string{"original_path", "thumb_path", "web_path"},
		},
		db: db,
	}
}

func metadataArg(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}

// Create inserts a new media row and assigns its id
func (r *mediaRepo) Create(ctx context.Context, media *models.Media) error {
	query := `
		INSERT INTO media (title, media_type, description, youtube_id, original_path, thumb_path, web_path,
			is_private, metadata, tags, category, created_at, updated_at, publish_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		media.Title, media.Type, media.Description, nullString(media.YouTubeID),
		nullString(media.OriginalPath), nullString(media.ThumbPath), nullString(media.WebPath),
		media.IsPrivate, metadataArg(media.Metadata), validation.JoinTags(media.Tags),
		stringPtrArg(media.Category), media.CreatedAt, media.UpdatedAt, int64PtrArg(media.PublishAt),
	).Scan(&media.ID)
}

// Update writes the listed fields plus updated_at; asset paths are fixed at ingest
func (r *mediaRepo) Update(ctx context.Context, media *models.Media, fields []models.Field) (bool, error) {
	set := newSetClause(media.UpdatedAt)
	for _, f := range fields {
		switch f {
		case models.FieldTitle:
			set.add("title", media.Title)
		case models.FieldDescription:
			set.add("description", media.Description)
		case models.FieldIsPrivate:
			set.add("is_private", media.IsPrivate)
		case models.FieldTags:
			set.add("tags", validation.JoinTags(media.Tags))
		case models.FieldCategory:
			set.add("category", stringPtrArg(media.Category))
		case models.FieldPublishAt:
			set.add("publish_at", int64PtrArg(media.PublishAt))
		default:
			return false, fmt.Errorf("media has no updatable field %q", f)
		}
	}

	query, args := set.build("media", media.ID)
	return r.exec(ctx, query, args...)
}

func scanMedia(scan func(dest ...interface{}) error) (*models.Media, error) {
	var media models.Media
	var youTubeID, originalPath, thumbPath, webPath, category sql.NullString
	var metadata []byte
	var tags string
	var publishAt, deletedAt sql.NullInt64

	err := scan(
		&media.ID, &media.Title, &media.Type, &media.Description, &youTubeID,
		&originalPath, &thumbPath, &webPath, &media.IsPrivate, &metadata, &tags,
		&category, &media.CreatedAt, &media.UpdatedAt, &publishAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	media.YouTubeID = youTubeID.String
	media.OriginalPath = originalPath.String
	media.ThumbPath = thumbPath.String
	media.WebPath = webPath.String
	media.Metadata = json.RawMessage(metadata)
	media.Tags = validation.SplitTags(tags)
	media.Category = nullStringPtr(category)
	media.PublishAt = nullInt64Ptr(publishAt)
	media.DeletedAt = nullInt64Ptr(deletedAt)
	return &media, nil
}

// GetByIDForUpdate reads media and locks its row until the enclosing
// transaction ends
func (r *mediaRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1 FOR UPDATE`
	media, err := scanMedia(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return media, err
}

// GetByID retrieves media in any state by ID
func (r *mediaRepo) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1`
	media, err := scanMedia(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return media, err
}

func (r *mediaRepo) list(ctx context.Context, where string, opts models.ListOptions) ([]*models.Media, int, error) {
	filter, args := listFilter(opts, 1)
	where += filter

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM media WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		mediaColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*models.Media
	for rows.Next() {
		media, err := scanMedia(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, media)
	}
	return items, total, rows.Err()
}

// ListPublic lists published, non-private media, newest first
func (r *mediaRepo) ListPublic(ctx context.Context, opts models.ListOptions) ([]*models.Media, int, error) {
	return r.list(ctx, `deleted_at IS NULL AND publish_at IS NULL AND is_private = FALSE`, opts)
}

// ListActive lists every non-deleted media row
func (r *mediaRepo) ListActive(ctx context.Context, opts models.ListOptions) ([]*models.Media, int, error) {
	return r.list(ctx, `deleted_at IS NULL`, opts)
}
