package repository

import (
	"context"
	"database/sql"

	"github.com/content-lifecycle-api/internal/database"
	"github.com/content-lifecycle-api/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every repository
// can run either standalone or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ContentRepository holds the lifecycle operations shared by both content
// tables. Every precondition is part of the write statement itself, so a
// false result means the precondition did not hold at commit time.
type ContentRepository interface {
	SoftDelete(ctx context.Context, id, at int64) (bool, error)
	Restore(ctx context.Context, id int64) (bool, error)
	Promote(ctx context.Context, id, now int64) (bool, error)
	Purge(ctx context.Context, id int64) (*models.PurgedItem, error)
	PurgeDeleted(ctx context.Context) ([]models.PurgedItem, error)
	DueForPublish(ctx context.Context, now int64) ([]int64, error)
	ListDeleted(ctx context.Context) ([]models.RecycledItem, error)
	FindByTags(ctx context.Context, tags []string) ([]models.TaggedRow, error)
	UpdateTags(ctx context.Context, id int64, tags []string) error
	TagCounts(ctx context.Context) ([]models.TagCount, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	ContentRepository
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article, fields []models.Field) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Article, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64, includeDeleted bool) (bool, error)
	ListPublished(ctx context.Context, opts models.ListOptions) ([]*models.Article, int, error)
	ListActive(ctx context.Context, opts models.ListOptions) ([]*models.Article, int, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.SearchHit, int, error)
}

// MediaRepository defines the interface for media data operations
type MediaRepository interface {
	ContentRepository
	Create(ctx context.Context, media *models.Media) error
	Update(ctx context.Context, media *models.Media, fields []models.Field) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Media, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Media, error)
	ListPublic(ctx context.Context, opts models.ListOptions) ([]*models.Media, int, error)
	ListActive(ctx context.Context, opts models.ListOptions) ([]*models.Media, int, error)
}

// AuditRepository defines the interface for the append-only audit log
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error
	List(ctx context.Context, filter models.AuditFilter, limit, offset int) ([]models.AuditLogEntry, int, error)
	DeleteBefore(ctx context.Context, before *int64) (int64, error)
}

// APIKeyRepository defines the interface for API key data operations
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	List(ctx context.Context) ([]models.APIKey, error)
	GetByKey(ctx context.Context, key string) (*models.APIKey, error)
	SetActive(ctx context.Context, id int64, active bool) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	TouchLastUsed(ctx context.Context, id, at int64) error
}

// TxRunner executes fn with repositories bound to a single transaction
type TxRunner func(ctx context.Context, fn func(tx *Repositories) error) error

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
	Media   MediaRepository
	Audit   AuditRepository
	APIKey  APIKeyRepository

	runTx TxRunner
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	repos := bind(db)
	repos.runTx = func(ctx context.Context, fn func(tx *Repositories) error) error {
		return db.WithTx(ctx, func(tx *sql.Tx) error {
			return fn(bind(tx))
		})
	}
	return repos
}

// NewWithTx assembles repositories from arbitrary implementations. Tests
// use it to plug in-memory stores with their own transaction semantics.
func NewWithTx(article ArticleRepository, media MediaRepository, audit AuditRepository, apiKey APIKeyRepository, runTx TxRunner) *Repositories {
	return &Repositories{
		Article: article,
		Media:   media,
		Audit:   audit,
		APIKey:  apiKey,
		runTx:   runTx,
	}
}

func bind(q querier) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(q),
		Media:   NewMediaRepo(q),
		Audit:   NewAuditRepo(q),
		APIKey:  NewAPIKeyRepo(q),
	}
}

// WithinTx runs fn in a transaction. Repositories that are already bound to
// a transaction run fn directly, so nested calls join the outer one.
func (r *Repositories) WithinTx(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.runTx == nil {
		return fn(r)
	}
	return r.runTx(ctx, fn)
}

// Content returns the lifecycle repository for a kind
func (r *Repositories) Content(kind models.Kind) ContentRepository {
	if kind == models.KindMedia {
		return r.Media
	}
	return r.Article
}
