package service

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/markup"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/content-lifecycle-api/internal/validation"
	"github.com/rs/zerolog"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".mkv":  true,
	".m4v":  true,
}

// contentService is the concrete implementation of ContentService
type contentService struct {
	repos  *repository.Repositories
	audit  *auditService
	assets AssetStore
	events EventSink
	clock  Clock
	log    zerolog.Logger
}

func newContentService(repos *repository.Repositories, audit *auditService, deps Dependencies, log zerolog.Logger) *contentService {
	return &contentService{
		repos:  repos,
		audit:  audit,
		assets: deps.Assets,
		events: deps.Events,
		clock:  deps.Clock,
		log:    log.With().Str("service", "content").Logger(),
	}
}

func (s *contentService) now() int64 {
	return s.clock().Unix()
}

// schedule keeps publishAt only when it lies in the future; a past or
// present time means "publish now".
func schedule(publishAt *int64, now int64) *int64 {
	if publishAt == nil || *publishAt <= now {
		return nil
	}
	at := *publishAt
	return &at
}

func normalizeCategory(category *string) *string {
	if category == nil {
		return nil
	}
	c := strings.TrimSpace(*category)
	if c == "" {
		return nil
	}
	return &c
}

func validationError(errs []validation.ValidationError) error {
	return apperrors.Validation("%s", validation.Summarize(errs))
}

func (s *contentService) emit(kind models.Kind, verb string, payload interface{}) {
	s.events.Emit(models.EventType(kind, verb), payload)
}

// CreateArticle validates, slugs and stores a new article
func (s *contentService) CreateArticle(ctx context.Context, actor string, in *models.ArticleInput) (*models.Article, error) {
	if errs := validation.ValidateArticle(in); len(errs) > 0 {
		return nil, validationError(errs)
	}

	html, err := markup.Render(in.Body)
	if err != nil {
		return nil, apperrors.Internal("failed to render article body", err)
	}

	now := s.now()
	article := &models.Article{
		Item: models.Item{
			Title:     strings.TrimSpace(in.Title),
			Tags:      validation.NormalizeTags(in.Tags),
			Category:  normalizeCategory(in.Category),
			CreatedAt: now,
			UpdatedAt: now,
			PublishAt: schedule(in.PublishAt, now),
		},
		Slug:     validation.Slugify(in.Title),
		Body:     in.Body,
		BodyHTML: html,
	}

	taken, err := s.repos.Article.SlugTaken(ctx, article.Slug, 0, !in.ReuseDeletedSlug)
	if err != nil {
		return nil, apperrors.Internal("failed to check slug", err)
	}
	if taken {
		return nil, apperrors.Conflict("slug %q is already in use", article.Slug)
	}

	if err := s.repos.Article.Create(ctx, article); err != nil {
		return nil, apperrors.Classify("failed to create article", err)
	}

	s.log.Info().Int64("id", article.ID).Str("slug", article.Slug).Str("state", string(article.State())).Msg("Article created")
	s.audit.Record(ctx, actor, models.ActionCreate, models.TargetArticle, &article.ID, fmt.Sprintf("created article %q", article.Title))
	s.emit(models.KindArticle, models.EventNew, article)
	return article, nil
}

// inferMediaType picks the media type when the caller did not name one
func inferMediaType(in *models.MediaInput) models.MediaType {
	if in.Type != "" {
		return in.Type
	}
	if strings.TrimSpace(in.YouTube) != "" {
		return models.MediaYouTube
	}
	if videoExtensions[strings.ToLower(path.Ext(in.Asset.OriginalPath))] {
		return models.MediaVideo
	}
	return models.MediaImage
}

// CreateMedia stores an ingested asset or a YouTube reference
func (s *contentService) CreateMedia(ctx context.Context, actor string, in *models.MediaInput) (*models.Media, error) {
	if errs := validation.ValidateMedia(in); len(errs) > 0 {
		return nil, validationError(errs)
	}

	now := s.now()
	media := &models.Media{
		Item: models.Item{
			Title:     strings.TrimSpace(in.Title),
			Tags:      validation.NormalizeTags(in.Tags),
			Category:  normalizeCategory(in.Category),
			CreatedAt: now,
			UpdatedAt: now,
			PublishAt: schedule(in.PublishAt, now),
		},
		Type:        inferMediaType(in),
		Description: strings.TrimSpace(in.Description),
		IsPrivate:   in.IsPrivate,
	}

	if in.Asset != nil && in.Asset.OriginalPath != "" {
		media.OriginalPath = in.Asset.OriginalPath
		media.ThumbPath = in.Asset.ThumbPath
		media.WebPath = in.Asset.WebPath
		media.Metadata = in.Asset.Metadata
	} else {
		id, err := validation.ParseYouTubeID(in.YouTube)
		if err != nil {
			return nil, apperrors.Validation("youtube: %v", err)
		}
		media.YouTubeID = id
	}

	if err := s.repos.Media.Create(ctx, media); err != nil {
		return nil, apperrors.Classify("failed to create media", err)
	}

	s.log.Info().Int64("id", media.ID).Str("type", string(media.Type)).Msg("Media created")
	s.audit.Record(ctx, actor, models.ActionCreate, models.TargetMedia, &media.ID, fmt.Sprintf("created %s %q", media.Type, media.Title))
	s.emit(models.KindMedia, models.EventNew, media)
	return media, nil
}

// UpdateArticle applies a partial update. Soft-deleted articles may be
// edited and stay in the recycle bin.
func (s *contentService) UpdateArticle(ctx context.Context, actor string, id int64, patch *models.ArticlePatch) (*models.Article, error) {
	if errs := validation.ValidateArticlePatch(patch); len(errs) > 0 {
		return nil, validationError(errs)
	}

	var article *models.Article
	err := s.repos.WithinTx(ctx, func(tx *repository.Repositories) error {
		existing, err := tx.Article.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.NotFound("article %d not found", id)
		}

		now := s.now()
		var fields []models.Field
		if patch.Title != nil {
			existing.Title = strings.TrimSpace(*patch.Title)
			fields = append(fields, models.FieldTitle)
			if slug := validation.Slugify(existing.Title); slug != existing.Slug {
				taken, err := tx.Article.SlugTaken(ctx, slug, id, !patch.ReuseDeletedSlug)
				if err != nil {
					return err
				}
				if taken {
					return apperrors.Conflict("slug %q is already in use", slug)
				}
				existing.Slug = slug
				fields = append(fields, models.FieldSlug)
			}
		}
		if patch.Body != nil {
			html, err := markup.Render(*patch.Body)
			if err != nil {
				return err
			}
			existing.Body = *patch.Body
			existing.BodyHTML = html
			fields = append(fields, models.FieldBody)
		}
		if patch.Tags != nil {
			existing.Tags = validation.NormalizeTags(*patch.Tags)
			fields = append(fields, models.FieldTags)
		}
		if patch.Category != nil {
			existing.Category = normalizeCategory(patch.Category)
			fields = append(fields, models.FieldCategory)
		}
		if patch.PublishAt != nil {
			existing.PublishAt = schedule(patch.PublishAt, now)
			fields = append(fields, models.FieldPublishAt)
		}
		existing.UpdatedAt = now

		updated, err := tx.Article.Update(ctx, existing, fields)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.NotFound("article %d not found", id)
		}
		// Re-read so the response reflects every stored column
		article, err = tx.Article.GetByID(ctx, id)
		if err == nil && article == nil {
			return apperrors.NotFound("article %d not found", id)
		}
		return err
	})
	if err != nil {
		return nil, apperrors.Classify("failed to update article", err)
	}

	s.audit.Record(ctx, actor, models.ActionUpdate, models.TargetArticle, &id, fmt.Sprintf("updated article %q", article.Title))
	s.emit(models.KindArticle, models.EventUpdate, article)
	return article, nil
}

// UpdateMedia applies a partial update to media metadata
func (s *contentService) UpdateMedia(ctx context.Context, actor string, id int64, patch *models.MediaPatch) (*models.Media, error) {
	if errs := validation.ValidateMediaPatch(patch); len(errs) > 0 {
		return nil, validationError(errs)
	}

	var media *models.Media
	err := s.repos.WithinTx(ctx, func(tx *repository.Repositories) error {
		existing, err := tx.Media.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.NotFound("media %d not found", id)
		}

		now := s.now()
		var fields []models.Field
		if patch.Title != nil {
			existing.Title = strings.TrimSpace(*patch.Title)
			fields = append(fields, models.FieldTitle)
		}
		if patch.Description != nil {
			existing.Description = strings.TrimSpace(*patch.Description)
			fields = append(fields, models.FieldDescription)
		}
		if patch.Tags != nil {
			existing.Tags = validation.NormalizeTags(*patch.Tags)
			fields = append(fields, models.FieldTags)
		}
		if patch.Category != nil {
			existing.Category = normalizeCategory(patch.Category)
			fields = append(fields, models.FieldCategory)
		}
		if patch.IsPrivate != nil {
			existing.IsPrivate = *patch.IsPrivate
			fields = append(fields, models.FieldIsPrivate)
		}
		if patch.PublishAt != nil {
			existing.PublishAt = schedule(patch.PublishAt, now)
			fields = append(fields, models.FieldPublishAt)
		}
		existing.UpdatedAt = now

		updated, err := tx.Media.Update(ctx, existing, fields)
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.NotFound("media %d not found", id)
		}
		media, err = tx.Media.GetByID(ctx, id)
		if err == nil && media == nil {
			return apperrors.NotFound("media %d not found", id)
		}
		return err
	})
	if err != nil {
		return nil, apperrors.Classify("failed to update media", err)
	}

	s.audit.Record(ctx, actor, models.ActionUpdate, models.TargetMedia, &id, fmt.Sprintf("updated media %q", media.Title))
	s.emit(models.KindMedia, models.EventUpdate, media)
	return media, nil
}

// SoftDelete moves an active item to the recycle bin. Deleting an item
// that is already there is NotFound.
func (s *contentService) SoftDelete(ctx context.Context, actor string, kind models.Kind, id int64) error {
	deleted, err := s.repos.Content(kind).SoftDelete(ctx, id, s.now())
	if err != nil {
		return apperrors.Internal(fmt.Sprintf("failed to delete %s", kind), err)
	}
	if !deleted {
		return apperrors.NotFound("%s %d not found or already deleted", kind, id)
	}

	s.log.Info().Str("kind", string(kind)).Int64("id", id).Msg("Moved to recycle bin")
	s.audit.Record(ctx, actor, models.ActionDelete, kind.TargetType(), &id, fmt.Sprintf("moved %s %d to recycle bin", kind, id))
	s.emit(kind, models.EventDelete, map[string]int64{"id": id})
	return nil
}

// Purge permanently removes an item in any state, then its files
func (s *contentService) Purge(ctx context.Context, actor string, kind models.Kind, id int64) error {
	item, err := s.repos.Content(kind).Purge(ctx, id)
	if err != nil {
		return apperrors.Internal(fmt.Sprintf("failed to purge %s", kind), err)
	}
	if item == nil {
		return apperrors.NotFound("%s %d not found", kind, id)
	}

	s.removeAssets(*item)
	s.log.Info().Str("kind", string(kind)).Int64("id", id).Msg("Purged")
	s.audit.Record(ctx, actor, models.ActionPurge, kind.TargetType(), &id, fmt.Sprintf("purged %s %q", kind, item.Title))
	s.emit(kind, models.EventPurge, map[string]int64{"id": id})
	return nil
}

// PurgeAll empties the recycle bin for the scope. Rows and their audit
// entries commit together; file removal follows the commit.
func (s *contentService) PurgeAll(ctx context.Context, actor string, scope models.Scope) (int, error) {
	var purged []models.PurgedItem
	err := s.repos.WithinTx(ctx, func(tx *repository.Repositories) error {
		purged = nil
		for _, kind := range scope.Kinds() {
			items, err := tx.Content(kind).PurgeDeleted(ctx)
			if err != nil {
				return fmt.Errorf("purging deleted %s: %w", kind, err)
			}
			for i := range items {
				item := items[i]
				entry := s.audit.entry(actor, models.ActionPurgeAll, kind.TargetType(), &item.ID,
					fmt.Sprintf("purged %s %q from recycle bin", kind, item.Title))
				if err := tx.Audit.Append(ctx, entry); err != nil {
					return fmt.Errorf("auditing purge of %s %d: %w", kind, item.ID, err)
				}
			}
			purged = append(purged, items...)
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Internal("failed to empty recycle bin", err)
	}

	for _, item := range purged {
		s.removeAssets(item)
		s.emit(item.Kind, models.EventPurge, map[string]int64{"id": item.ID})
	}

	s.log.Info().Str("scope", string(scope)).Int("purged", len(purged)).Msg("Recycle bin emptied")
	return len(purged), nil
}

// removeAssets deletes each backing file once. Failures are left for
// manual cleanup.
func (s *contentService) removeAssets(item models.PurgedItem) {
	if s.assets == nil {
		return
	}
	for _, p := range item.Assets {
		if err := s.assets.DeleteAsset(p); err != nil {
			s.log.Warn().Err(err).
				Str("kind", string(item.Kind)).
				Int64("id", item.ID).
				Str("path", p).
				Msg("Failed to delete asset file")
		}
	}
}

// Restore takes an item out of the recycle bin, leaving publish_at as it was
func (s *contentService) Restore(ctx context.Context, actor string, kind models.Kind, id int64) (models.Content, error) {
	restored, err := s.repos.Content(kind).Restore(ctx, id)
	if err != nil {
		return nil, apperrors.Classify(fmt.Sprintf("failed to restore %s", kind), err)
	}
	if !restored {
		return nil, apperrors.NotFound("%s %d not found in recycle bin", kind, id)
	}

	item, err := s.GetContent(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, models.ActionRestore, kind.TargetType(), &id, fmt.Sprintf("restored %s %q", kind, item.Base().Title))
	s.emit(kind, models.EventRestore, item)
	return item, nil
}

// Promote publishes a scheduled item whose time has come. Scheduler-driven
// promotion emits an event but writes no audit entry.
func (s *contentService) Promote(ctx context.Context, kind models.Kind, id int64) error {
	promoted, err := s.repos.Content(kind).Promote(ctx, id, s.now())
	if err != nil {
		return apperrors.Internal(fmt.Sprintf("failed to promote %s", kind), err)
	}
	if !promoted {
		return apperrors.NotFound("%s %d is not due for publishing", kind, id)
	}

	var payload interface{} = map[string]int64{"id": id}
	if item, err := s.GetContent(ctx, kind, id); err == nil {
		payload = item
	}
	s.emit(kind, models.EventPublish, payload)
	return nil
}

// GetContent returns an item in any state short of purged
func (s *contentService) GetContent(ctx context.Context, kind models.Kind, id int64) (models.Content, error) {
	switch kind {
	case models.KindArticle:
		article, err := s.repos.Article.GetByID(ctx, id)
		if err != nil {
			return nil, apperrors.Internal("failed to load article", err)
		}
		if article == nil {
			return nil, apperrors.NotFound("article %d not found", id)
		}
		return article, nil
	case models.KindMedia:
		media, err := s.repos.Media.GetByID(ctx, id)
		if err != nil {
			return nil, apperrors.Internal("failed to load media", err)
		}
		if media == nil {
			return nil, apperrors.NotFound("media %d not found", id)
		}
		return media, nil
	}
	return nil, apperrors.Validation("unknown content kind %q", kind)
}

func normalizeListOptions(opts models.ListOptions) models.ListOptions {
	opts.Page, opts.Limit = normalizePage(opts.Page, opts.Limit, defaultPageLimit, maxPageLimit)
	opts.Tag = validation.NormalizeTag(opts.Tag)
	opts.Category = strings.TrimSpace(opts.Category)
	return opts
}

// ListAdmin lists every non-deleted item of a kind, scheduled ones included
func (s *contentService) ListAdmin(ctx context.Context, kind models.Kind, opts models.ListOptions) ([]models.Content, models.Pagination, error) {
	opts = normalizeListOptions(opts)
	items := []models.Content{}
	var total int

	switch kind {
	case models.KindArticle:
		articles, n, err := s.repos.Article.ListActive(ctx, opts)
		if err != nil {
			return nil, models.Pagination{}, apperrors.Internal("failed to list articles", err)
		}
		for _, a := range articles {
			items = append(items, a)
		}
		total = n
	case models.KindMedia:
		media, n, err := s.repos.Media.ListActive(ctx, opts)
		if err != nil {
			return nil, models.Pagination{}, apperrors.Internal("failed to list media", err)
		}
		for _, m := range media {
			items = append(items, m)
		}
		total = n
	default:
		return nil, models.Pagination{}, apperrors.Validation("unknown content kind %q", kind)
	}

	return items, models.NewPagination(opts.Page, opts.Limit, total), nil
}

// ListRecycleBin lists soft-deleted items, most recently deleted first
func (s *contentService) ListRecycleBin(ctx context.Context, scope models.Scope) ([]models.RecycledItem, error) {
	items := []models.RecycledItem{}
	for _, kind := range scope.Kinds() {
		deleted, err := s.repos.Content(kind).ListDeleted(ctx)
		if err != nil {
			return nil, apperrors.Internal(fmt.Sprintf("failed to list deleted %s", kind), err)
		}
		items = append(items, deleted...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DeletedAt > items[j].DeletedAt
	})
	return items, nil
}

// GetArticleBySlug returns a published article for public readers
func (s *contentService) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.repos.Article.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, apperrors.Internal("failed to load article", err)
	}
	if article == nil {
		return nil, apperrors.NotFound("article %q not found", slug)
	}
	return article, nil
}

// ListPublishedArticles lists articles visible to the public
func (s *contentService) ListPublishedArticles(ctx context.Context, opts models.ListOptions) ([]*models.Article, models.Pagination, error) {
	opts = normalizeListOptions(opts)
	articles, total, err := s.repos.Article.ListPublished(ctx, opts)
	if err != nil {
		return nil, models.Pagination{}, apperrors.Internal("failed to list articles", err)
	}
	if articles == nil {
		articles = []*models.Article{}
	}
	return articles, models.NewPagination(opts.Page, opts.Limit, total), nil
}

// ListPublicMedia lists published media that is not private
func (s *contentService) ListPublicMedia(ctx context.Context, opts models.ListOptions) ([]*models.Media, models.Pagination, error) {
	opts = normalizeListOptions(opts)
	media, total, err := s.repos.Media.ListPublic(ctx, opts)
	if err != nil {
		return nil, models.Pagination{}, apperrors.Internal("failed to list media", err)
	}
	if media == nil {
		media = []*models.Media{}
	}
	return media, models.NewPagination(opts.Page, opts.Limit, total), nil
}
