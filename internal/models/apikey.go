package models

// APIKey grants access to the public read API
type APIKey struct {
	ID         int64  `json:"id"`
	Label      string `json:"label"`
	Key        string `json:"key,omitempty"`
	Active     bool   `json:"active"`
	CreatedAt  int64  `json:"created_at"`
	LastUsedAt *int64 `json:"last_used_at,omitempty"`
}
