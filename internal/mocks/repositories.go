package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/markup"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.ArticleRepository = (*MockArticleRepository)(nil)
	_ repository.MediaRepository   = (*MockMediaRepository)(nil)
	_ repository.AuditRepository   = (*MockAuditRepository)(nil)
	_ repository.APIKeyRepository  = (*MockAPIKeyRepository)(nil)
)

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	*contentTable[models.Article]
	CreateError error
}

func cloneArticle(a *models.Article) *models.Article {
	out := *a
	out.Item = cloneItem(a.Item)
	return &out
}

func NewMockArticleRepository() *MockArticleRepository {
	m := &MockArticleRepository{
		contentTable: newContentTable(models.KindArticle,
			func(a *models.Article) *models.Item { return &a.Item },
			func(a *models.Article) []string { return nil },
			cloneArticle,
		),
	}
	m.restoreConflict = func(row *models.Article) error {
		if m.slugHolder(row.Slug, row.ID, false) != nil {
			return apperrors.Conflict("restoring article %d would duplicate an active slug", row.ID)
		}
		return nil
	}
	return m
}

// slugHolder finds another row holding slug; called with mu held
func (m *MockArticleRepository) slugHolder(slug string, excludeID int64, includeDeleted bool) *models.Article {
	for id, a := range m.rows {
		if id == excludeID || a.Slug != slug {
			continue
		}
		if a.DeletedAt != nil && !includeDeleted {
			continue
		}
		return a
	}
	return nil
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugHolder(article.Slug, 0, false) != nil {
		return apperrors.Conflict("slug %q is already in use", article.Slug)
	}
	m.insert(article)
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article, fields []models.Field) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rows[article.ID]
	if !ok {
		return false, nil
	}
	if models.HasField(fields, models.FieldSlug) && m.slugHolder(article.Slug, article.ID, false) != nil {
		return false, apperrors.Conflict("slug %q is already in use", article.Slug)
	}
	updated := cloneArticle(existing)
	for _, f := range fields {
		switch f {
		case models.FieldTitle:
			updated.Title = article.Title
		case models.FieldSlug:
			updated.Slug = article.Slug
		case models.FieldBody:
			updated.Body = article.Body
			updated.BodyHTML = article.BodyHTML
		case models.FieldTags:
			updated.Tags = append([]string{}, article.Tags...)
		case models.FieldCategory:
			updated.Category = article.Category
		case models.FieldPublishAt:
			updated.PublishAt = article.PublishAt
		default:
			return false, fmt.Errorf("article has no updatable field %q", f)
		}
	}
	updated.UpdatedAt = article.UpdatedAt
	m.rows[article.ID] = updated
	return true, nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return m.get(id), nil
}

func (m *MockArticleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Article, error) {
	return m.lockedGet(id), nil
}

func (m *MockArticleRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.Slug == slug && a.IsPublic() {
			return cloneArticle(a), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) SlugTaken(ctx context.Context, slug string, excludeID int64, includeDeleted bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugHolder(slug, excludeID, includeDeleted) != nil, nil
}

func (m *MockArticleRepository) ListPublished(ctx context.Context, opts models.ListOptions) ([]*models.Article, int, error) {
	items, total := m.list(opts, func(a *models.Article) bool { return a.IsPublic() })
	return items, total, nil
}

func (m *MockArticleRepository) ListActive(ctx context.Context, opts models.ListOptions) ([]*models.Article, int, error) {
	items, total := m.list(opts, func(a *models.Article) bool { return a.DeletedAt == nil })
	return items, total, nil
}

// Search matches published articles containing every query word in the
// title or body. Rank is the number of occurrences.
func (m *MockArticleRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.SearchHit, int, error) {
	words := strings.Fields(strings.ToLower(query))

	m.mu.Lock()
	var hits []models.SearchHit
	for _, a := range m.rows {
		if !a.IsPublic() {
			continue
		}
		text := strings.ToLower(a.Title + " " + a.Body)
		rank := 0
		for _, w := range words {
			n := strings.Count(text, w)
			if n == 0 {
				rank = 0
				break
			}
			rank += n
		}
		if rank == 0 {
			continue
		}
		hits = append(hits, models.SearchHit{
			ID:        a.ID,
			Slug:      a.Slug,
			Title:     a.Title,
			Tags:      append([]string{}, a.Tags...),
			Snippet:   highlight(a.Body, words),
			Rank:      float64(rank),
			CreatedAt: a.CreatedAt,
		})
	}
	m.mu.Unlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Rank != hits[j].Rank {
			return hits[i].Rank > hits[j].Rank
		}
		return hits[i].ID > hits[j].ID
	})
	total := len(hits)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return hits[offset:end], total, nil
}

func highlight(body string, words []string) string {
	body = markup.StripMatchDelimiters(body)
	lower := strings.ToLower(body)
	for _, w := range words {
		if i := strings.Index(lower, w); i >= 0 {
			body = body[:i] + markup.MatchStart + body[i:i+len(w)] + markup.MatchStop + body[i+len(w):]
			break
		}
	}
	return markup.Snippet(body)
}

// MockMediaRepository is a mock implementation of MediaRepository
type MockMediaRepository struct {
	*contentTable[models.Media]
	CreateError error
}

func cloneMedia(m *models.Media) *models.Media {
	out := *m
	out.Item = cloneItem(m.Item)
	out.Metadata = append([]byte(nil), m.Metadata...)
	return &out
}

func NewMockMediaRepository() *MockMediaRepository {
	return &MockMediaRepository{
		contentTable: newContentTable(models.KindMedia,
			func(m *models.Media) *models.Item { return &m.Item },
			func(m *models.Media) []string { return m.AssetPaths() },
			cloneMedia,
		),
	}
}

func (m *MockMediaRepository) Create(ctx context.Context, media *models.Media) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(media)
	return nil
}

func (m *MockMediaRepository) Update(ctx context.Context, media *models.Media, fields []models.Field) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rows[media.ID]
	if !ok {
		return false, nil
	}
	updated := cloneMedia(existing)
	for _, f := range fields {
		switch f {
		case models.FieldTitle:
			updated.Title = media.Title
		case models.FieldDescription:
			updated.Description = media.Description
		case models.FieldIsPrivate:
			updated.IsPrivate = media.IsPrivate
		case models.FieldTags:
			updated.Tags = append([]string{}, media.Tags...)
		case models.FieldCategory:
			updated.Category = media.Category
		case models.FieldPublishAt:
			updated.PublishAt = media.PublishAt
		default:
			return false, fmt.Errorf("media has no updatable field %q", f)
		}
	}
	updated.UpdatedAt = media.UpdatedAt
	m.rows[media.ID] = updated
	return true, nil
}

func (m *MockMediaRepository) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	return m.get(id), nil
}

func (m *MockMediaRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Media, error) {
	return m.lockedGet(id), nil
}

func (m *MockMediaRepository) ListPublic(ctx context.Context, opts models.ListOptions) ([]*models.Media, int, error) {
	items, total := m.list(opts, func(media *models.Media) bool { return media.IsPublic() && !media.IsPrivate })
	return items, total, nil
}

func (m *MockMediaRepository) ListActive(ctx context.Context, opts models.ListOptions) ([]*models.Media, int, error) {
	items, total := m.list(opts, func(media *models.Media) bool { return media.DeletedAt == nil })
	return items, total, nil
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mu          sync.Mutex
	nextID      int64
	Entries     []models.AuditLogEntry
	AppendError error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendError != nil {
		return m.AppendError
	}
	m.nextID++
	entry.ID = m.nextID
	m.Entries = append(m.Entries, *entry)
	return nil
}

// Snapshot returns a copy of the stored entries in insertion order
func (m *MockAuditRepository) Snapshot() []models.AuditLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLogEntry{}, m.Entries...)
}

func (m *MockAuditRepository) rollback(entries []models.AuditLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = entries
}

func (m *MockAuditRepository) List(ctx context.Context, filter models.AuditFilter, limit, offset int) ([]models.AuditLogEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.AuditLogEntry
	for i := len(m.Entries) - 1; i >= 0; i-- {
		e := m.Entries[i]
		if filter.Actor != "" && e.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.TargetType != "" && e.TargetType != filter.TargetType {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt > matched[j].CreatedAt })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *MockAuditRepository) DeleteBefore(ctx context.Context, before *int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Entries[:0:0]
	for _, e := range m.Entries {
		if before != nil && e.CreatedAt >= *before {
			kept = append(kept, e)
		}
	}
	deleted := int64(len(m.Entries) - len(kept))
	m.Entries = kept
	return deleted, nil
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepository
type MockAPIKeyRepository struct {
	mu     sync.Mutex
	nextID int64
	Keys   map[int64]*models.APIKey
}

func NewMockAPIKeyRepository() *MockAPIKeyRepository {
	return &MockAPIKeyRepository{Keys: make(map[int64]*models.APIKey)}
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	key.ID = m.nextID
	stored := *key
	m.Keys[key.ID] = &stored
	return nil
}

func (m *MockAPIKeyRepository) List(ctx context.Context) ([]models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]models.APIKey, 0, len(m.Keys))
	for _, k := range m.Keys {
		listed := *k
		listed.Key = ""
		keys = append(keys, listed)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID > keys[j].ID })
	return keys, nil
}

func (m *MockAPIKeyRepository) GetByKey(ctx context.Context, key string) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.Keys {
		if k.Key == key {
			found := *k
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockAPIKeyRepository) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.Keys[id]
	if !ok {
		return false, nil
	}
	k.Active = active
	return true, nil
}

func (m *MockAPIKeyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Keys[id]; !ok {
		return false, nil
	}
	delete(m.Keys, id)
	return true, nil
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, id, at int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.Keys[id]; ok {
		k.LastUsedAt = &at
	}
	return nil
}

// MockStore bundles the mock repositories behind a transaction runner that
// snapshots every table and rolls back when the callback fails.
type MockStore struct {
	Article *MockArticleRepository
	Media   *MockMediaRepository
	Audit   *MockAuditRepository
	APIKey  *MockAPIKeyRepository

	txMu      sync.Mutex
	Commits   int
	Rollbacks int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Article: NewMockArticleRepository(),
		Media:   NewMockMediaRepository(),
		Audit:   NewMockAuditRepository(),
		APIKey:  NewMockAPIKeyRepository(),
	}
}

// Repositories returns the repository aggregate backed by the store
func (s *MockStore) Repositories() *repository.Repositories {
	return repository.NewWithTx(s.Article, s.Media, s.Audit, s.APIKey, s.runTx)
}

func (s *MockStore) runTx(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	articles := s.Article.snapshot()
	media := s.Media.snapshot()
	audit := s.Audit.Snapshot()

	tx := repository.NewWithTx(s.Article, s.Media, s.Audit, s.APIKey, nil)
	if err := fn(tx); err != nil {
		s.Article.rollback(articles)
		s.Media.rollback(media)
		s.Audit.rollback(audit)
		s.Rollbacks++
		return err
	}
	s.Commits++
	return nil
}
