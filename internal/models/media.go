package models

import "encoding/json"

// MediaType enumerates the kinds of media assets
type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaYouTube MediaType = "youtube"
)

// ValidMediaTypes defines allowed media types
var ValidMediaTypes = map[MediaType]bool{
	MediaImage:   true,
	MediaVideo:   true,
	MediaYouTube: true,
}

// Media is an uploaded image/video or a YouTube reference
type Media struct {
	Item
	Type         MediaType       `json:"type"`
	Description  string          `json:"description"`
	YouTubeID    string          `json:"youtube_id,omitempty"`
	OriginalPath string          `json:"original_path,omitempty"`
	ThumbPath    string          `json:"thumb_path,omitempty"`
	WebPath      string          `json:"web_path,omitempty"`
	IsPrivate    bool            `json:"is_private"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// AssetPaths returns every non-empty backing file path
func (m *Media) AssetPaths() []string {
	var paths []string
	for _, p := range []string{m.OriginalPath, m.ThumbPath, m.WebPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// MediaAsset is what the upload collaborator hands over after ingest
type MediaAsset struct {
	OriginalPath string          `json:"original_path"`
	ThumbPath    string          `json:"thumb_path,omitempty"`
	WebPath      string          `json:"web_path,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// MediaInput carries the fields accepted when creating media.
// Exactly one of Asset and YouTube must be set.
type MediaInput struct {
	Title       string      `json:"title"`
	Type        MediaType   `json:"type"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	Category    *string     `json:"category,omitempty"`
	IsPrivate   bool        `json:"is_private"`
	PublishAt   *int64      `json:"publish_at,omitempty"`
	Asset       *MediaAsset `json:"asset,omitempty"`
	YouTube     string      `json:"youtube,omitempty"`
}

// MediaPatch is a partial media update
type MediaPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Category    *string   `json:"category,omitempty"`
	IsPrivate   *bool     `json:"is_private,omitempty"`
	PublishAt   *int64    `json:"publish_at,omitempty"`
}

func (m *Media) ContentKind() Kind { return KindMedia }
func (m *Media) Base() *Item       { return &m.Item }
