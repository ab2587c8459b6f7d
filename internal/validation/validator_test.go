package validation

import (
	"strings"
	"testing"

	"github.com/content-lifecycle-api/internal/models"
)

func TestValidateArticle(t *testing.T) {
	tests := []struct {
		name       string
		input      *models.ArticleInput
		wantErrors int
		wantFields []string
	}{
		{
			name:       "valid article",
			input:      &models.ArticleInput{Title: "Derby di Roma", Body: "Una partita memorabile."},
			wantErrors: 0,
		},
		{
			name:       "missing title - required field",
			input:      &models.ArticleInput{Body: "body"},
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "title without letters cannot produce a slug",
			input:      &models.ArticleInput{Title: "!!!", Body: "body"},
			wantErrors: 1,
			wantFields: []string{"title"},
		},
		{
			name:       "missing body",
			input:      &models.ArticleInput{Title: "Title", Body: "   "},
			wantErrors: 1,
			wantFields: []string{"body"},
		},
		{
			name:       "everything missing",
			input:      &models.ArticleInput{},
			wantErrors: 2,
			wantFields: []string{"title", "body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateArticle(tt.input)
			if len(errors) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.wantErrors, len(errors), errors)
			}
			for i, field := range tt.wantFields {
				if i < len(errors) && errors[i].Field != field {
					t.Errorf("Expected error on field %q, got %q", field, errors[i].Field)
				}
			}
		})
	}
}

func TestValidateMedia(t *testing.T) {
	asset := &models.MediaAsset{OriginalPath: "uploads/a.jpg", ThumbPath: "uploads/a_thumb.jpg"}

	tests := []struct {
		name       string
		input      *models.MediaInput
		wantErrors int
		wantFields []string
	}{
		{
			name:       "valid image upload",
			input:      &models.MediaInput{Title: "Curva Sud", Type: models.MediaImage, Asset: asset},
			wantErrors: 0,
		},
		{
			name:       "valid youtube reference",
			input:      &models.MediaInput{Title: "Gol", Type: models.MediaYouTube, YouTube: "https://youtu.be/dQw4w9WgXcQ"},
			wantErrors: 0,
		},
		{
			name:       "asset and youtube are mutually exclusive",
			input:      &models.MediaInput{Title: "Both", Asset: asset, YouTube: "dQw4w9WgXcQ"},
			wantErrors: 1,
			wantFields: []string{"asset"},
		},
		{
			name:       "neither asset nor youtube",
			input:      &models.MediaInput{Title: "Nothing", Type: models.MediaImage},
			wantErrors: 1,
			wantFields: []string{"asset"},
		},
		{
			name:       "unknown type",
			input:      &models.MediaInput{Title: "Odd", Type: "audio", Asset: asset},
			wantErrors: 1,
			wantFields: []string{"type"},
		},
		{
			name:       "youtube type with upload",
			input:      &models.MediaInput{Title: "Odd", Type: models.MediaYouTube, Asset: asset},
			wantErrors: 1,
			wantFields: []string{"type"},
		},
		{
			name:       "bad youtube reference",
			input:      &models.MediaInput{Title: "Bad", Type: models.MediaYouTube, YouTube: "https://vimeo.com/123"},
			wantErrors: 1,
			wantFields: []string{"youtube"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateMedia(tt.input)
			if len(errors) != tt.wantErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.wantErrors, len(errors), errors)
			}
			for i, field := range tt.wantFields {
				if i < len(errors) && errors[i].Field != field {
					t.Errorf("Expected error on field %q, got %q", field, errors[i].Field)
				}
			}
		})
	}
}

func TestParseYouTubeID(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://m.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=short", "", true},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", true},
		{"not a url", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ParseYouTubeID(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseYouTubeID(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseYouTubeID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestValidateSearchQuery(t *testing.T) {
	if errs := ValidateSearchQuery("a"); len(errs) != 1 {
		t.Errorf("single character query should fail, got %v", errs)
	}
	if errs := ValidateSearchQuery("  a "); len(errs) != 1 {
		t.Errorf("padding should not count toward length, got %v", errs)
	}
	if errs := ValidateSearchQuery("gol"); len(errs) != 0 {
		t.Errorf("valid query rejected: %v", errs)
	}
}

func TestSummarize(t *testing.T) {
	msg := Summarize([]ValidationError{
		{Field: "title", Message: "title is required"},
		{Field: "body", Message: "body is required"},
	})
	if !strings.Contains(msg, "title: title is required") || !strings.Contains(msg, "; body:") {
		t.Errorf("unexpected summary %q", msg)
	}
}
