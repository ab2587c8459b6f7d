package models

import "fmt"

// Kind identifies one of the two content tables
type Kind string

const (
	KindArticle Kind = "article"
	KindMedia   Kind = "media"
)

// Kinds lists every content kind in a stable order
var Kinds = []Kind{KindArticle, KindMedia}

// ParseKind accepts both singular and plural forms ("article", "articles")
func ParseKind(s string) (Kind, error) {
	switch s {
	case "article", "articles":
		return KindArticle, nil
	case "media":
		return KindMedia, nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// TargetType returns the audit target type for the kind
func (k Kind) TargetType() TargetType {
	if k == KindMedia {
		return TargetMedia
	}
	return TargetArticle
}

// Scope selects which content kinds a bulk operation touches
type Scope string

const (
	ScopeMedia    Scope = "media"
	ScopeArticles Scope = "articles"
	ScopeBoth     Scope = "both"
)

// ParseScope validates a scope string, defaulting empty to both
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "both", "all":
		return ScopeBoth, nil
	case "media":
		return ScopeMedia, nil
	case "articles", "article":
		return ScopeArticles, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Kinds expands the scope into the kinds it covers
func (s Scope) Kinds() []Kind {
	switch s {
	case ScopeMedia:
		return []Kind{KindMedia}
	case ScopeArticles:
		return []Kind{KindArticle}
	}
	return Kinds
}

// State is the derived lifecycle state of a content item
type State string

const (
	StateScheduled   State = "scheduled"
	StatePublished   State = "published"
	StateSoftDeleted State = "deleted"
)

// Item is the shape shared by articles and media.
// Timestamps are Unix seconds.
type Item struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	Category  *string  `json:"category,omitempty"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
	PublishAt *int64   `json:"publish_at,omitempty"`
	DeletedAt *int64   `json:"deleted_at,omitempty"`
}

// State derives the lifecycle state. A past-due publish_at that the
// scheduler has not yet cleared still counts as scheduled.
func (i *Item) State() State {
	switch {
	case i.DeletedAt != nil:
		return StateSoftDeleted
	case i.PublishAt != nil:
		return StateScheduled
	}
	return StatePublished
}

// IsPublic reports whether the item is visible to public readers at now
func (i *Item) IsPublic() bool {
	return i.DeletedAt == nil && i.PublishAt == nil
}

// RecycledItem is a soft-deleted row as shown in the recycle bin
type RecycledItem struct {
	Kind      Kind   `json:"kind"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	DeletedAt int64  `json:"deleted_at"`
	PublishAt *int64 `json:"publish_at,omitempty"`
}

// PurgedItem is what a hard delete leaves behind: the id and any asset
// files that now need best-effort removal.
type PurgedItem struct {
	Kind   Kind     `json:"kind"`
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Assets []string `json:"-"`
}

// TaggedRow is the minimal projection used by tag rewrites
type TaggedRow struct {
	ID   int64
	Tags []string
}

// TagCount is one entry in a tag listing
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes total pages for the given totals
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ListOptions filters public and admin listings
type ListOptions struct {
	Page     int
	Limit    int
	Tag      string
	Category string
}

// Offset returns the row offset for the page
func (o ListOptions) Offset() int {
	if o.Page < 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit
}

// Content is implemented by *Article and *Media
type Content interface {
	ContentKind() Kind
	Base() *Item
}

// Field names a mutable column. Updates write only the fields they list, so
// a concurrent promote or tag rewrite on other columns is never reverted.
type Field string

const (
	FieldTitle       Field = "title"
	FieldSlug        Field = "slug"
	FieldBody        Field = "body"
	FieldTags        Field = "tags"
	FieldCategory    Field = "category"
	FieldPublishAt   Field = "publish_at"
	FieldDescription Field = "description"
	FieldIsPrivate   Field = "is_private"
)

// HasField reports whether fields contains f
func HasField(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
