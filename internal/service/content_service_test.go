package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArticle_Published(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Perché Totti è il Capitano", "Roma", "totti", "roma"))
	require.NoError(t, err)

	assert.NotZero(t, article.ID)
	assert.Equal(t, "perche-totti-e-il-capitano", article.Slug)
	assert.Equal(t, []string{"roma", "totti"}, article.Tags)
	assert.Equal(t, models.StatePublished, article.State())
	assert.Nil(t, article.PublishAt)
	assert.Equal(t, f.now(), article.CreatedAt)
	assert.Contains(t, article.BodyHTML, "<strong>bold</strong>")

	assert.Equal(t, []models.AuditAction{models.ActionCreate}, f.auditActions())
	assert.Equal(t, []string{"article:new"}, f.events.Types())
}

func TestCreateArticle_PublishAt(t *testing.T) {
	f := newFixture(t)

	past, err := f.svc.Content.CreateArticle(f.ctx, admin, &models.ArticleInput{
		Title: "Yesterday", Body: "body", PublishAt: f.in(-time.Hour),
	})
	require.NoError(t, err)
	assert.Nil(t, past.PublishAt, "a past publish time means publish now")

	future, err := f.svc.Content.CreateArticle(f.ctx, admin, &models.ArticleInput{
		Title: "Tomorrow", Body: "body", PublishAt: f.in(24 * time.Hour),
	})
	require.NoError(t, err)
	require.NotNil(t, future.PublishAt)
	assert.Equal(t, models.StateScheduled, future.State())
}

func TestCreateArticle_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Content.CreateArticle(f.ctx, admin, &models.ArticleInput{Title: "No body"})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = f.svc.Content.CreateArticle(f.ctx, admin, &models.ArticleInput{Title: "!!!", Body: "x"})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	assert.Zero(t, f.store.Article.Len())
	assert.Empty(t, f.auditActions())
}

func TestCreateArticle_SlugConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Derby Day"))
	require.NoError(t, err)

	_, err = f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Derby  day!"))
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict), "got %v", err)
	assert.Equal(t, 1, f.store.Article.Len(), "no row may be created on conflict")
	assert.Equal(t, 1, f.countAudit(models.ActionCreate))
}

func TestCreateArticle_SlugHeldBySoftDeleted(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Derby Day"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, first.ID))

	_, err = f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Derby Day"))
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict), "soft-deleted holder still blocks the slug")

	in := articleInput("Derby Day")
	in.ReuseDeletedSlug = true
	second, err := f.svc.Content.CreateArticle(f.ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, first.Slug, second.Slug)

	_, err = f.svc.Content.Restore(f.ctx, admin, models.KindArticle, first.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict), "restore must not duplicate an active slug")

	deleted, err := f.svc.Content.ListRecycleBin(f.ctx, models.ScopeArticles)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
}

func TestCreateArticle_NonLatinTitle(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Привет мир"))
	require.NoError(t, err)
	assert.Equal(t, "привет-мир", article.Slug)

	found, err := f.svc.Content.GetArticleBySlug(f.ctx, "привет-мир")
	require.NoError(t, err)
	assert.Equal(t, article.ID, found.ID)
}

func TestUpdateArticle(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Old Title", "calcio"))
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	updated, err := f.svc.Content.UpdateArticle(f.ctx, admin, article.ID, &models.ArticlePatch{
		Title:    stringPtr("New Title"),
		Body:     stringPtr("# Heading"),
		Category: stringPtr("  news "),
	})
	require.NoError(t, err)

	assert.Equal(t, "new-title", updated.Slug)
	assert.Contains(t, updated.BodyHTML, "<h1>Heading</h1>")
	assert.Equal(t, []string{"calcio"}, updated.Tags)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "news", *updated.Category)
	assert.Equal(t, article.CreatedAt, updated.CreatedAt)
	assert.Equal(t, f.now(), updated.UpdatedAt)

	assert.Equal(t, []models.AuditAction{models.ActionCreate, models.ActionUpdate}, f.auditActions())
	assert.Equal(t, []string{"article:new", "article:update"}, f.events.Types())
}

func TestUpdateArticle_Schedule(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Preview"))
	require.NoError(t, err)

	scheduled, err := f.svc.Content.UpdateArticle(f.ctx, admin, article.ID, &models.ArticlePatch{PublishAt: f.in(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, models.StateScheduled, scheduled.State())

	published, err := f.svc.Content.UpdateArticle(f.ctx, admin, article.ID, &models.ArticlePatch{PublishAt: f.in(0)})
	require.NoError(t, err)
	assert.Equal(t, models.StatePublished, published.State())
}

func TestUpdateArticle_SlugConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Alpha"))
	require.NoError(t, err)
	beta, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Beta"))
	require.NoError(t, err)

	_, err = f.svc.Content.UpdateArticle(f.ctx, admin, beta.ID, &models.ArticlePatch{Title: stringPtr("ALPHA")})
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	stored, err := f.svc.Content.GetContent(f.ctx, models.KindArticle, beta.ID)
	require.NoError(t, err)
	assert.Equal(t, "beta", stored.(*models.Article).Slug)

	// retitling to the same slug is not a conflict with itself
	_, err = f.svc.Content.UpdateArticle(f.ctx, admin, beta.ID, &models.ArticlePatch{Title: stringPtr("beta!")})
	assert.NoError(t, err)
}

func TestUpdateArticle_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Content.UpdateArticle(f.ctx, admin, 42, &models.ArticlePatch{Title: stringPtr("x")})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.auditActions())
}

func TestUpdateArticle_SoftDeletedStaysDeleted(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Typo Titel"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, article.ID))

	updated, err := f.svc.Content.UpdateArticle(f.ctx, admin, article.ID, &models.ArticlePatch{Title: stringPtr("Typo Title")})
	require.NoError(t, err)
	assert.NotNil(t, updated.DeletedAt)

	bin, err := f.svc.Content.ListRecycleBin(f.ctx, models.ScopeBoth)
	require.NoError(t, err)
	require.Len(t, bin, 1)
	assert.Equal(t, "Typo Title", bin[0].Title)
}

func TestUpdateArticle_KeepsColumnsWrittenConcurrently(t *testing.T) {
	f := newFixture(t)

	in := articleInput("Derby Preview", "derby")
	in.PublishAt = f.in(time.Hour)
	article, err := f.svc.Content.CreateArticle(f.ctx, admin, in)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	// the scheduler and a tag rename both commit after the edit has read the row
	f.store.Article.LockedReadHook = func(id int64) {
		promoted, err := f.store.Article.Promote(f.ctx, id, f.now())
		require.NoError(t, err)
		require.True(t, promoted)
		require.NoError(t, f.store.Article.UpdateTags(f.ctx, id, []string{"derby-della-capitale"}))
	}

	updated, err := f.svc.Content.UpdateArticle(f.ctx, admin, article.ID, &models.ArticlePatch{Title: stringPtr("Derby Preview, Lineups")})
	require.NoError(t, err)
	f.store.Article.LockedReadHook = nil

	assert.Equal(t, "Derby Preview, Lineups", updated.Title)
	assert.Equal(t, models.StatePublished, updated.State(), "the promotion is not reverted")
	assert.Equal(t, []string{"derby-della-capitale"}, updated.Tags, "the renamed tags are not reverted")

	result, err := f.svc.Scheduler.Tick(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Promoted, "nothing is due again after the edit")
}

func TestUpdateMedia_KeepsConcurrentPromote(t *testing.T) {
	f := newFixture(t)

	in := imageInput("Coreografia", "media/7")
	in.PublishAt = f.in(time.Hour)
	media, err := f.svc.Content.CreateMedia(f.ctx, admin, in)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	f.store.Media.LockedReadHook = func(id int64) {
		_, err := f.store.Media.Promote(f.ctx, id, f.now())
		require.NoError(t, err)
	}
	updated, err := f.svc.Content.UpdateMedia(f.ctx, admin, media.ID, &models.MediaPatch{Description: stringPtr("Curva Sud")})
	require.NoError(t, err)
	f.store.Media.LockedReadHook = nil

	assert.Equal(t, "Curva Sud", updated.Description)
	assert.Nil(t, updated.PublishAt)

	public, _, err := f.svc.Content.ListPublicMedia(f.ctx, models.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, public, 1)
}

func TestSoftDelete_SecondCallIsNotFound(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Once"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, article.ID))
	err = f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, article.ID)
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, 1, f.countAudit(models.ActionDelete))
	assert.Equal(t, []string{"article:new", "article:delete"}, f.events.Types())
}

func TestSoftDeleteRestore_RoundTrip(t *testing.T) {
	f := newFixture(t)

	in := articleInput("Scheduled Piece", "roma")
	in.PublishAt = f.in(48 * time.Hour)
	in.Category = stringPtr("features")
	article, err := f.svc.Content.CreateArticle(f.ctx, admin, in)
	require.NoError(t, err)

	before, err := f.store.Article.GetByID(f.ctx, article.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, article.ID))

	deleted, err := f.store.Article.GetByID(f.ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)
	assert.Equal(t, f.now(), *deleted.DeletedAt)

	restored, err := f.svc.Content.Restore(f.ctx, admin, models.KindArticle, article.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateScheduled, restored.Base().State())

	after, err := f.store.Article.GetByID(f.ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "soft delete then restore must change nothing but deleted_at")

	assert.Equal(t, []models.AuditAction{models.ActionCreate, models.ActionDelete, models.ActionRestore}, f.auditActions())
}

func TestRestore_ActiveItemIsNotFound(t *testing.T) {
	f := newFixture(t)

	media, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Curva Sud", "media/1"))
	require.NoError(t, err)

	_, err = f.svc.Content.Restore(f.ctx, admin, models.KindMedia, media.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Content.Restore(f.ctx, admin, models.KindMedia, 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateMedia(t *testing.T) {
	f := newFixture(t)

	image, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Curva Sud", "media/1"))
	require.NoError(t, err)
	assert.Equal(t, models.MediaImage, image.Type)
	assert.Equal(t, []string{"media/1/original.jpg", "media/1/thumb.jpg", "media/1/web.webp"}, image.AssetPaths())
	assert.JSONEq(t, `{"width":1920,"height":1080}`, string(image.Metadata))

	video, err := f.svc.Content.CreateMedia(f.ctx, admin, &models.MediaInput{
		Title: "Goal", Asset: &models.MediaAsset{OriginalPath: "media/2/goal.MP4"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MediaVideo, video.Type)

	yt, err := f.svc.Content.CreateMedia(f.ctx, admin, &models.MediaInput{
		Title: "Highlights", YouTube: "https://youtu.be/dQw4w9WgXcQ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MediaYouTube, yt.Type)
	assert.Equal(t, "dQw4w9WgXcQ", yt.YouTubeID)
	assert.Empty(t, yt.AssetPaths())

	assert.Equal(t, []string{"media:new", "media:new", "media:new"}, f.events.Types())
}

func TestCreateMedia_AssetAndYouTubeAreExclusive(t *testing.T) {
	f := newFixture(t)

	in := imageInput("Both", "media/3")
	in.YouTube = "dQw4w9WgXcQ"
	_, err := f.svc.Content.CreateMedia(f.ctx, admin, in)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = f.svc.Content.CreateMedia(f.ctx, admin, &models.MediaInput{Title: "Neither"})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	assert.Zero(t, f.store.Media.Len())
}

func TestUpdateMedia(t *testing.T) {
	f := newFixture(t)

	media, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Curva", "media/1"))
	require.NoError(t, err)

	private := true
	updated, err := f.svc.Content.UpdateMedia(f.ctx, admin, media.ID, &models.MediaPatch{
		Description: stringPtr("From the north stand"),
		IsPrivate:   &private,
		Tags:        &[]string{"Tifo", "curva"},
	})
	require.NoError(t, err)
	assert.True(t, updated.IsPrivate)
	assert.Equal(t, "From the north stand", updated.Description)
	assert.Equal(t, []string{"tifo", "curva"}, updated.Tags)
	assert.Equal(t, "media/1/original.jpg", updated.OriginalPath, "asset paths are fixed at ingest")

	public, _, err := f.svc.Content.ListPublicMedia(f.ctx, models.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, public, "private media is not listed publicly")

	_, err = f.svc.Content.UpdateMedia(f.ctx, admin, 999, &models.MediaPatch{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMediaScenario_DeleteThenPurge(t *testing.T) {
	f := newFixture(t)

	media, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Coreografia", "media/9"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindMedia, media.ID))

	bin, err := f.svc.Content.ListRecycleBin(f.ctx, models.ScopeMedia)
	require.NoError(t, err)
	require.Len(t, bin, 1)
	assert.Equal(t, models.KindMedia, bin[0].Kind)
	assert.Equal(t, media.ID, bin[0].ID)

	require.NoError(t, f.svc.Content.Purge(f.ctx, admin, models.KindMedia, media.ID))

	bin, err = f.svc.Content.ListRecycleBin(f.ctx, models.ScopeMedia)
	require.NoError(t, err)
	assert.Empty(t, bin)

	_, err = f.svc.Content.GetContent(f.ctx, models.KindMedia, media.ID)
	assert.True(t, apperrors.IsNotFound(err))

	assert.ElementsMatch(t, []string{"media/9/original.jpg", "media/9/thumb.jpg", "media/9/web.webp"}, f.assets.Deleted())
	assert.Equal(t, []models.AuditAction{models.ActionCreate, models.ActionDelete, models.ActionPurge}, f.auditActions())
	assert.Equal(t, []string{"media:new", "media:delete", "media:purge"}, f.events.Types())
}

func TestPurge_AnyStateAndMissing(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Active"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Content.Purge(f.ctx, admin, models.KindArticle, article.ID))
	err = f.svc.Content.Purge(f.ctx, admin, models.KindArticle, article.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPurge_AssetFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)

	media, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Locked", "media/5"))
	require.NoError(t, err)
	f.assets.Failures["media/5/thumb.jpg"] = errors.New("permission denied")

	require.NoError(t, f.svc.Content.Purge(f.ctx, admin, models.KindMedia, media.ID))

	assert.Zero(t, f.store.Media.Len())
	assert.Len(t, f.assets.Deleted(), 3, "every path is still attempted")
}

func TestPurgeAll(t *testing.T) {
	f := newFixture(t)

	keep, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Keep", "media/1"))
	require.NoError(t, err)
	gone, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Gone", "media/2"))
	require.NoError(t, err)
	yt, err := f.svc.Content.CreateMedia(f.ctx, admin, &models.MediaInput{Title: "Clip", YouTube: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	a1, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("First"))
	require.NoError(t, err)
	a2, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Second"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindMedia, gone.ID))
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindMedia, yt.ID))
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, a1.ID))
	f.events.Reset()

	purged, err := f.svc.Content.PurgeAll(f.ctx, admin, models.ScopeMedia)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	bin, err := f.svc.Content.ListRecycleBin(f.ctx, models.ScopeBoth)
	require.NoError(t, err)
	require.Len(t, bin, 1, "articles are outside the media scope")
	assert.Equal(t, a1.ID, bin[0].ID)

	assert.ElementsMatch(t, []string{"media/2/original.jpg", "media/2/thumb.jpg", "media/2/web.webp"}, f.assets.Deleted())
	assert.Equal(t, 2, f.countAudit(models.ActionPurgeAll))
	assert.Equal(t, []string{"media:purge", "media:purge"}, f.events.Types())

	purged, err = f.svc.Content.PurgeAll(f.ctx, admin, models.ScopeBoth)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	bin, err = f.svc.Content.ListRecycleBin(f.ctx, models.ScopeBoth)
	require.NoError(t, err)
	assert.Empty(t, bin)

	_, err = f.svc.Content.GetContent(f.ctx, models.KindMedia, keep.ID)
	assert.NoError(t, err, "active media survives")
	_, err = f.svc.Content.GetContent(f.ctx, models.KindArticle, a2.ID)
	assert.NoError(t, err, "active article survives")
	assert.Len(t, f.assets.Deleted(), 3, "each asset is attempted exactly once")
}

func TestPurgeAll_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)

	media, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Gone", "media/2"))
	require.NoError(t, err)
	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Gone too"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindMedia, media.ID))
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, article.ID))
	entries := len(f.store.Audit.Snapshot())

	f.store.Audit.AppendError = errors.New("audit table locked")
	_, err = f.svc.Content.PurgeAll(f.ctx, admin, models.ScopeBoth)
	assert.True(t, apperrors.Is(err, apperrors.CodeInternal))
	f.store.Audit.AppendError = nil

	bin, err := f.svc.Content.ListRecycleBin(f.ctx, models.ScopeBoth)
	require.NoError(t, err)
	assert.Len(t, bin, 2, "nothing may be purged when the batch fails")
	assert.Empty(t, f.assets.Deleted(), "no files are touched before commit")
	assert.Len(t, f.store.Audit.Snapshot(), entries)
	assert.Equal(t, 1, f.store.Rollbacks)
}

func TestAuditFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Resilient"))
	require.NoError(t, err)

	f.store.Audit.AppendError = errors.New("connection reset")
	assert.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, article.ID))

	deleted, err := f.store.Article.GetByID(f.ctx, article.ID)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)
}

func TestPromote(t *testing.T) {
	f := newFixture(t)

	in := articleInput("Kick-off")
	in.PublishAt = f.in(time.Minute)
	article, err := f.svc.Content.CreateArticle(f.ctx, admin, in)
	require.NoError(t, err)

	err = f.svc.Content.Promote(f.ctx, models.KindArticle, article.ID)
	assert.True(t, apperrors.IsNotFound(err), "not due yet")

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Content.Promote(f.ctx, models.KindArticle, article.ID))

	after, err := f.store.Article.GetByID(f.ctx, article.ID)
	require.NoError(t, err)

	err = f.svc.Content.Promote(f.ctx, models.KindArticle, article.ID)
	assert.True(t, apperrors.IsNotFound(err), "second promote fails its precondition")

	again, err := f.store.Article.GetByID(f.ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, after, again, "second promote performs no mutation")
	assert.Nil(t, again.PublishAt)
}

func TestPromote_WritesNoAuditEntry(t *testing.T) {
	f := newFixture(t)

	in := articleInput("Quiet")
	in.PublishAt = f.in(time.Second)
	article, err := f.svc.Content.CreateArticle(f.ctx, admin, in)
	require.NoError(t, err)
	f.clock.Advance(time.Second)

	require.NoError(t, f.svc.Content.Promote(f.ctx, models.KindArticle, article.ID))

	// scheduler-driven promotion is announced but intentionally not audited
	assert.Equal(t, []models.AuditAction{models.ActionCreate}, f.auditActions())
	assert.Equal(t, []string{"article:new", "article:publish"}, f.events.Types())
}

func TestListRecycleBin_NewestFirstAcrossKinds(t *testing.T) {
	f := newFixture(t)

	article, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Article"))
	require.NoError(t, err)
	media, err := f.svc.Content.CreateMedia(f.ctx, admin, imageInput("Media", "media/1"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindArticle, article.ID))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Content.SoftDelete(f.ctx, admin, models.KindMedia, media.ID))

	bin, err := f.svc.Content.ListRecycleBin(f.ctx, models.ScopeBoth)
	require.NoError(t, err)
	require.Len(t, bin, 2)
	assert.Equal(t, models.KindMedia, bin[0].Kind)
	assert.Equal(t, models.KindArticle, bin[1].Kind)
}

func TestPublicReads(t *testing.T) {
	f := newFixture(t)

	published, err := f.svc.Content.CreateArticle(f.ctx, admin, articleInput("Live", "roma"))
	require.NoError(t, err)
	scheduled := articleInput("Later", "roma")
	scheduled.PublishAt = f.in(time.Hour)
	later, err := f.svc.Content.CreateArticle(f.ctx, admin, scheduled)
	require.NoError(t, err)

	got, err := f.svc.Content.GetArticleBySlug(f.ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, published.ID, got.ID)

	_, err = f.svc.Content.GetArticleBySlug(f.ctx, later.Slug)
	assert.True(t, apperrors.IsNotFound(err))

	list, page, err := f.svc.Content.ListPublishedArticles(f.ctx, models.ListOptions{Tag: " ROMA "})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)

	all, page, err := f.svc.Content.ListAdmin(f.ctx, models.KindArticle, models.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
}
