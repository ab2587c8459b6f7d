package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/content-lifecycle-api/internal/models"
)

// contentTable is an in-memory content table shared by the article and
// media mocks. T is models.Article or models.Media.
type contentTable[T any] struct {
	mu     sync.Mutex
	kind   models.Kind
	nextID int64
	rows   map[int64]*T

	item   func(*T) *models.Item
	assets func(*T) []string
	clone  func(*T) *T
	// restoreConflict checks a row about to leave the recycle bin; called with mu held
	restoreConflict func(row *T) error

	// PromoteHook runs before each Promote, outside the lock
	PromoteHook func(id int64)
	// LockedReadHook runs after a locking read returns, standing in for a
	// writer that commits between the read and the update
	LockedReadHook func(id int64)
	// UpdateTagsError fails UpdateTags for the returned ids
	UpdateTagsError func(id int64) error
	PromoteCalls    int
}

func newContentTable[T any](kind models.Kind, item func(*T) *models.Item, assets func(*T) []string, clone func(*T) *T) *contentTable[T] {
	return &contentTable[T]{
		kind:   kind,
		rows:   make(map[int64]*T),
		item:   item,
		assets: assets,
		clone:  clone,
	}
}

func cloneItem(i models.Item) models.Item {
	out := i
	out.Tags = append([]string{}, i.Tags...)
	if i.Category != nil {
		c := *i.Category
		out.Category = &c
	}
	if i.PublishAt != nil {
		p := *i.PublishAt
		out.PublishAt = &p
	}
	if i.DeletedAt != nil {
		d := *i.DeletedAt
		out.DeletedAt = &d
	}
	return out
}

func (t *contentTable[T]) insert(row *T) {
	t.nextID++
	t.item(row).ID = t.nextID
	t.rows[t.nextID] = t.clone(row)
}

func (t *contentTable[T]) get(id int64) *T {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return nil
	}
	return t.clone(row)
}

// lockedGet serves GetByIDForUpdate. Row locks are not modelled.
func (t *contentTable[T]) lockedGet(id int64) *T {
	row := t.get(id)
	if t.LockedReadHook != nil {
		t.LockedReadHook(id)
	}
	return row
}

// Len returns the number of stored rows in any state
func (t *contentTable[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Seed stores a row as-is, keeping its id. Tests use it to set up states
// that no service operation produces directly.
func (t *contentTable[T]) Seed(row *T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.item(row).ID
	if id == 0 {
		t.insert(row)
		return
	}
	if id > t.nextID {
		t.nextID = id
	}
	t.rows[id] = t.clone(row)
}

func (t *contentTable[T]) snapshot() map[int64]*T {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := make(map[int64]*T, len(t.rows))
	for id, row := range t.rows {
		snap[id] = t.clone(row)
	}
	return snap
}

// rollback restores rows but keeps nextID, so ids handed out in an aborted
// transaction are never reused.
func (t *contentTable[T]) rollback(rows map[int64]*T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = rows
}

func (t *contentTable[T]) SoftDelete(ctx context.Context, id, at int64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok || t.item(row).DeletedAt != nil {
		return false, nil
	}
	t.item(row).DeletedAt = &at
	return true, nil
}

func (t *contentTable[T]) Restore(ctx context.Context, id int64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok || t.item(row).DeletedAt == nil {
		return false, nil
	}
	if t.restoreConflict != nil {
		if err := t.restoreConflict(row); err != nil {
			return false, err
		}
	}
	t.item(row).DeletedAt = nil
	return true, nil
}

func (t *contentTable[T]) Promote(ctx context.Context, id, now int64) (bool, error) {
	if t.PromoteHook != nil {
		t.PromoteHook(id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.PromoteCalls++
	row, ok := t.rows[id]
	if !ok {
		return false, nil
	}
	item := t.item(row)
	if item.PublishAt == nil || *item.PublishAt > now || item.DeletedAt != nil {
		return false, nil
	}
	item.PublishAt = nil
	return true, nil
}

func (t *contentTable[T]) purged(row *T) models.PurgedItem {
	item := t.item(row)
	return models.PurgedItem{Kind: t.kind, ID: item.ID, Title: item.Title, Assets: t.assets(row)}
}

func (t *contentTable[T]) Purge(ctx context.Context, id int64) (*models.PurgedItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, nil
	}
	delete(t.rows, id)
	purged := t.purged(row)
	return &purged, nil
}

func (t *contentTable[T]) sortedIDs() []int64 {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *contentTable[T]) PurgeDeleted(ctx context.Context) ([]models.PurgedItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var purged []models.PurgedItem
	for _, id := range t.sortedIDs() {
		row := t.rows[id]
		if t.item(row).DeletedAt == nil {
			continue
		}
		delete(t.rows, id)
		purged = append(purged, t.purged(row))
	}
	return purged, nil
}

func (t *contentTable[T]) DueForPublish(ctx context.Context, now int64) ([]int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var due []*models.Item
	for _, row := range t.rows {
		item := t.item(row)
		if item.PublishAt != nil && *item.PublishAt <= now && item.DeletedAt == nil {
			due = append(due, item)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if *due[i].PublishAt != *due[j].PublishAt {
			return *due[i].PublishAt < *due[j].PublishAt
		}
		return due[i].ID < due[j].ID
	})
	ids := make([]int64, len(due))
	for i, item := range due {
		ids[i] = item.ID
	}
	return ids, nil
}

func (t *contentTable[T]) ListDeleted(ctx context.Context) ([]models.RecycledItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var items []models.RecycledItem
	for _, row := range t.rows {
		item := cloneItem(*t.item(row))
		if item.DeletedAt == nil {
			continue
		}
		items = append(items, models.RecycledItem{
			Kind:      t.kind,
			ID:        item.ID,
			Title:     item.Title,
			DeletedAt: *item.DeletedAt,
			PublishAt: item.PublishAt,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].DeletedAt != items[j].DeletedAt {
			return items[i].DeletedAt > items[j].DeletedAt
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (t *contentTable[T]) FindByTags(ctx context.Context, tags []string) ([]models.TaggedRow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wanted[tag] = true
	}
	var found []models.TaggedRow
	for _, id := range t.sortedIDs() {
		item := t.item(t.rows[id])
		for _, tag := range item.Tags {
			if wanted[tag] {
				found = append(found, models.TaggedRow{ID: id, Tags: append([]string{}, item.Tags...)})
				break
			}
		}
	}
	return found, nil
}

func (t *contentTable[T]) UpdateTags(ctx context.Context, id int64, tags []string) error {
	if t.UpdateTagsError != nil {
		if err := t.UpdateTagsError(id); err != nil {
			return err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return fmt.Errorf("%s %d vanished during tag rewrite", t.kind, id)
	}
	t.item(row).Tags = append([]string{}, tags...)
	return nil
}

func (t *contentTable[T]) TagCounts(ctx context.Context) ([]models.TagCount, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[string]int)
	for _, row := range t.rows {
		item := t.item(row)
		if item.DeletedAt != nil {
			continue
		}
		for _, tag := range item.Tags {
			counts[tag]++
		}
	}
	out := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, models.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// list returns clones of matching rows, newest first, paged by opts
func (t *contentTable[T]) list(opts models.ListOptions, keep func(*T) bool) ([]*T, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var matched []*T
	for _, row := range t.rows {
		if !keep(row) || !matchesOptions(t.item(row), opts) {
			continue
		}
		matched = append(matched, row)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := t.item(matched[i]), t.item(matched[j])
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		return a.ID > b.ID
	})

	total := len(matched)
	start := opts.Offset()
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	page := make([]*T, 0, end-start)
	for _, row := range matched[start:end] {
		page = append(page, t.clone(row))
	}
	return page, total
}

func matchesOptions(item *models.Item, opts models.ListOptions) bool {
	if opts.Tag != "" {
		found := false
		for _, tag := range item.Tags {
			if tag == opts.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if opts.Category != "" && (item.Category == nil || *item.Category != opts.Category) {
		return false
	}
	return true
}
