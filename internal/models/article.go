package models

// Article is a written piece addressed publicly by its slug
type Article struct {
	Item
	Slug     string `json:"slug"`
	Body     string `json:"body"`
	BodyHTML string `json:"body_html"`
}

// ArticleInput carries the fields accepted when creating an article
type ArticleInput struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Category  *string  `json:"category,omitempty"`
	PublishAt *int64   `json:"publish_at,omitempty"`
	// ReuseDeletedSlug lets a new article take a slug still held by a
	// soft-deleted article.
	ReuseDeletedSlug bool `json:"reuse_deleted_slug,omitempty"`
}

// ArticlePatch is a partial update; nil fields are left untouched.
// A PublishAt at or before now publishes the article, a later one schedules it.
type ArticlePatch struct {
	Title            *string   `json:"title,omitempty"`
	Body             *string   `json:"body,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
	Category         *string   `json:"category,omitempty"`
	PublishAt        *int64    `json:"publish_at,omitempty"`
	ReuseDeletedSlug bool      `json:"reuse_deleted_slug,omitempty"`
}

// SearchHit is one ranked search result
type SearchHit struct {
	ID        int64    `json:"id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	Snippet   string   `json:"snippet"`
	Rank      float64  `json:"rank"`
	CreatedAt int64    `json:"created_at"`
}

// SearchResponse is a page of search hits
type SearchResponse struct {
	Query      string      `json:"query"`
	Results    []SearchHit `json:"results"`
	Pagination Pagination  `json:"pagination"`
}

func (a *Article) ContentKind() Kind { return KindArticle }
func (a *Article) Base() *Item       { return &a.Item }
