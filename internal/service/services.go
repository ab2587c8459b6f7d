package service

import (
	"context"
	"time"

	"github.com/content-lifecycle-api/internal/config"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/rs/zerolog"
)

// AssetStore removes backing files of purged media. Deletion is best-effort.
type AssetStore interface {
	DeleteAsset(path string) error
}

// EventSink delivers lifecycle notifications. Emit must not block.
type EventSink interface {
	Emit(eventType string, payload interface{})
}

// Clock returns the current time
type Clock func() time.Time

// Dependencies are the collaborators the services consume
type Dependencies struct {
	Assets AssetStore
	Events EventSink
	Clock  Clock
}

// ContentService defines the lifecycle operations on articles and media
type ContentService interface {
	CreateArticle(ctx context.Context, actor string, in *models.ArticleInput) (*models.Article, error)
	CreateMedia(ctx context.Context, actor string, in *models.MediaInput) (*models.Media, error)
	UpdateArticle(ctx context.Context, actor string, id int64, patch *models.ArticlePatch) (*models.Article, error)
	UpdateMedia(ctx context.Context, actor string, id int64, patch *models.MediaPatch) (*models.Media, error)
	SoftDelete(ctx context.Context, actor string, kind models.Kind, id int64) error
	Purge(ctx context.Context, actor string, kind models.Kind, id int64) error
	PurgeAll(ctx context.Context, actor string, scope models.Scope) (int, error)
	Restore(ctx context.Context, actor string, kind models.Kind, id int64) (models.Content, error)
	Promote(ctx context.Context, kind models.Kind, id int64) error

	GetContent(ctx context.Context, kind models.Kind, id int64) (models.Content, error)
	ListAdmin(ctx context.Context, kind models.Kind, opts models.ListOptions) ([]models.Content, models.Pagination, error)
	ListRecycleBin(ctx context.Context, scope models.Scope) ([]models.RecycledItem, error)
	GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	ListPublishedArticles(ctx context.Context, opts models.ListOptions) ([]*models.Article, models.Pagination, error)
	ListPublicMedia(ctx context.Context, opts models.ListOptions) ([]*models.Media, models.Pagination, error)
}

// SchedulerService promotes scheduled items whose publish time has arrived
type SchedulerService interface {
	Start(ctx context.Context)
	Stop()
	Tick(ctx context.Context) (*models.TickResult, error)
	IsRunning() bool
}

// AuditService defines the interface for the audit trail
type AuditService interface {
	Record(ctx context.Context, actor string, action models.AuditAction, target models.TargetType, targetID *int64, details string)
	List(ctx context.Context, filter models.AuditFilter, page, limit int) ([]models.AuditLogEntry, models.Pagination, error)
	Purge(ctx context.Context, actor string, before *int64) (int64, error)
}

// TaxonomyService rewrites tags in bulk
type TaxonomyService interface {
	RenameTag(ctx context.Context, actor, oldTag, newTag string, scope models.Scope) (int, error)
	MergeTags(ctx context.Context, actor string, sources []string, target string, scope models.Scope) (int, error)
	ListTags(ctx context.Context, scope models.Scope) ([]models.TagCount, error)
}

// SearchService defines the interface for article search
type SearchService interface {
	Search(ctx context.Context, query string, page, limit int) (*models.SearchResponse, error)
}

// APIKeyService manages keys for the public read API
type APIKeyService interface {
	Create(ctx context.Context, actor, label string) (*models.APIKey, error)
	List(ctx context.Context) ([]models.APIKey, error)
	SetActive(ctx context.Context, actor string, id int64, active bool) error
	Delete(ctx context.Context, actor string, id int64) error
	Authenticate(ctx context.Context, key string) (*models.APIKey, error)
}

// Services holds all service interfaces
type Services struct {
	Content   ContentService
	Scheduler SchedulerService
	Audit     AuditService
	Taxonomy  TaxonomyService
	Search    SearchService
	APIKey    APIKeyService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger, deps Dependencies) *Services {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Events == nil {
		deps.Events = discardEvents{}
	}

	auditSvc := newAuditService(repos, deps.Clock, log)
	contentSvc := newContentService(repos, auditSvc, deps, log)
	schedulerSvc := newSchedulerService(repos, contentSvc, cfg.Scheduler, deps.Clock, log)

	return &Services{
		Content:   contentSvc,
		Scheduler: schedulerSvc,
		Audit:     auditSvc,
		Taxonomy:  newTaxonomyService(repos, auditSvc, deps.Events, log),
		Search:    newSearchService(repos.Article, cfg.Search, log),
		APIKey:    newAPIKeyService(repos.APIKey, auditSvc, deps.Clock, log),
	}
}

type discardEvents struct{}

func (discardEvents) Emit(string, interface{}) {}
