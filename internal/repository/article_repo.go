package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/markup"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/validation"
)

const articleColumns = `id, slug, title, body, body_html, tags, category, created_at, updated_at, publish_at, deleted_at`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	*lifecycleOps
	db querier
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db querier) ArticleRepository {
	return &articleRepo{
		lifecycleOps: &lifecycleOps{db: db, kind: models.KindArticle, table: "articles"},
		db:           db,
	}
}

// Create inserts a new article and assigns its id
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (slug, title, body, body_html, tags, category, created_at, updated_at, publish_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		article.Slug, article.Title, article.Body, article.BodyHTML,
		validation.JoinTags(article.Tags), stringPtrArg(article.Category),
		article.CreatedAt, article.UpdatedAt, int64PtrArg(article.PublishAt),
	).Scan(&article.ID)
	if isUniqueViolation(err) {
		return apperrors.Conflict("slug %q is already in use", article.Slug)
	}
	return err
}

// Update writes the listed fields plus updated_at. deleted_at is not
// touched, so editing a soft-deleted article leaves it in the recycle bin.
func (r *articleRepo) Update(ctx context.Context, article *models.Article, fields []models.Field) (bool, error) {
	set := newSetClause(article.UpdatedAt)
	for _, f := range fields {
		switch f {
		case models.FieldTitle:
			set.add("title", article.Title)
		case models.FieldSlug:
			set.add("slug", article.Slug)
		case models.FieldBody:
			set.add("body", article.Body)
			set.add("body_html", article.BodyHTML)
		case models.FieldTags:
			set.add("tags", validation.JoinTags(article.Tags))
		case models.FieldCategory:
			set.add("category", stringPtrArg(article.Category))
		case models.FieldPublishAt:
			set.add("publish_at", int64PtrArg(article.PublishAt))
		default:
			return false, fmt.Errorf("article has no updatable field %q", f)
		}
	}

	query, args := set.build("articles", article.ID)
	ok, err := r.exec(ctx, query, args...)
	if isUniqueViolation(err) {
		return false, apperrors.Conflict("slug %q is already in use", article.Slug)
	}
	return ok, err
}

func scanArticle(scan func(dest ...interface{}) error) (*models.Article, error) {
	var article models.Article
	var tags string
	var category sql.NullString
	var publishAt, deletedAt sql.NullInt64

	err := scan(
		&article.ID, &article.Slug, &article.Title, &article.Body, &article.BodyHTML,
		&tags, &category, &article.CreatedAt, &article.UpdatedAt, &publishAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Tags = validation.SplitTags(tags)
	article.Category = nullStringPtr(category)
	article.PublishAt = nullInt64Ptr(publishAt)
	article.DeletedAt = nullInt64Ptr(deletedAt)
	return &article, nil
}

// GetByID retrieves an article in any state by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return article, err
}

// GetByIDForUpdate reads an article and locks its row until the enclosing
// transaction ends
func (r *articleRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 FOR UPDATE`
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return article, err
}

// GetPublishedBySlug retrieves a published, active article by slug
func (r *articleRepo) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE slug = $1 AND deleted_at IS NULL AND publish_at IS NULL`
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, slug).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return article, err
}

// SlugTaken checks whether another article holds the slug. Soft-deleted
// holders count unless includeDeleted is false.
func (r *articleRepo) SlugTaken(ctx context.Context, slug string, excludeID int64, includeDeleted bool) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1 AND id <> $2`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += `)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists)
	return exists, err
}

func (r *articleRepo) list(ctx context.Context, where string, opts models.ListOptions) ([]*models.Article, int, error) {
	filter, args := listFilter(opts, 1)
	where += filter

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM articles WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		articleColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}
	return articles, total, rows.Err()
}

// ListPublished lists articles visible to the public, newest first
func (r *articleRepo) ListPublished(ctx context.Context, opts models.ListOptions) ([]*models.Article, int, error) {
	return r.list(ctx, `deleted_at IS NULL AND publish_at IS NULL`, opts)
}

// ListActive lists every non-deleted article, scheduled ones included
func (r *articleRepo) ListActive(ctx context.Context, opts models.ListOptions) ([]*models.Article, int, error) {
	return r.list(ctx, `deleted_at IS NULL`, opts)
}

// headlineOptions delimits matches with the markup sentinels; the snippet is
// escaped in Go before the sentinels become <mark> tags.
var headlineOptions = `StartSel="` + markup.MatchStart + `", StopSel="` + markup.MatchStop +
	`", MaxWords=35, MinWords=15, MaxFragments=2`

// Search ranks published articles against a web-style query
func (r *articleRepo) Search(ctx context.Context, query string, limit, offset int) ([]models.SearchHit, int, error) {
	const visible = `search_vector @@ websearch_to_tsquery('simple', $1) AND deleted_at IS NULL AND publish_at IS NULL`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE `+visible, query).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlQuery := `
		SELECT id, slug, title, tags, created_at,
			ts_rank_cd(search_vector, websearch_to_tsquery('simple', $1)) AS rank,
			ts_headline('simple', translate(body, $4, ''), websearch_to_tsquery('simple', $1), $5) AS snippet
		FROM articles
		WHERE ` + visible + `
		ORDER BY rank DESC, created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, sqlQuery, query, limit, offset,
		markup.MatchStart+markup.MatchStop, headlineOptions)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var hit models.SearchHit
		var tags string
		if err := rows.Scan(&hit.ID, &hit.Slug, &hit.Title, &tags, &hit.CreatedAt, &hit.Rank, &hit.Snippet); err != nil {
			return nil, 0, err
		}
		hit.Tags = validation.SplitTags(tags)
		hit.Snippet = markup.Snippet(hit.Snippet)
		hits = append(hits, hit)
	}
	return hits, total, rows.Err()
}
