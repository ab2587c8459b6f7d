package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/content-lifecycle-api/internal/models"
)

var (
	slugRegex    = regexp.MustCompile(`^[\p{L}\p{N}]+(?:-[\p{L}\p{N}]+)*$`)
	youTubeRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// MinSearchQueryLength is the shortest query the search index accepts
const MinSearchQueryLength = 2

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Summarize joins validation errors into one message
func Summarize(errs []ValidationError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// IsValidSlug checks kebab-case slugs
func IsValidSlug(slug string) bool {
	return slugRegex.MatchString(slug)
}

// ValidateArticle validates an article creation request
func ValidateArticle(in *models.ArticleInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(in.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	} else if Slugify(in.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title must contain at least one letter or digit", Value: in.Title})
	}

	if strings.TrimSpace(in.Body) == "" {
		errors = append(errors, ValidationError{Field: "body", Message: "body is required"})
	}

	return errors
}

// ValidateArticlePatch validates the fields present in an article patch
func ValidateArticlePatch(p *models.ArticlePatch) []ValidationError {
	var errors []ValidationError

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			errors = append(errors, ValidationError{Field: "title", Message: "title must not be empty"})
		} else if Slugify(*p.Title) == "" {
			errors = append(errors, ValidationError{Field: "title", Message: "title must contain at least one letter or digit", Value: *p.Title})
		}
	}
	if p.Body != nil && strings.TrimSpace(*p.Body) == "" {
		errors = append(errors, ValidationError{Field: "body", Message: "body must not be empty"})
	}

	return errors
}

// ValidateMedia validates a media creation request. Uploaded assets and
// YouTube references are mutually exclusive.
func ValidateMedia(in *models.MediaInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(in.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	}

	hasAsset := in.Asset != nil && in.Asset.OriginalPath != ""
	hasYouTube := strings.TrimSpace(in.YouTube) != ""

	switch {
	case hasAsset && hasYouTube:
		errors = append(errors, ValidationError{Field: "asset", Message: "asset and youtube reference are mutually exclusive"})
	case !hasAsset && !hasYouTube:
		errors = append(errors, ValidationError{Field: "asset", Message: "an uploaded asset or a youtube reference is required"})
	}

	switch {
	case in.Type == "":
		// inferred by the caller from whichever source is present
	case !models.ValidMediaTypes[in.Type]:
		errors = append(errors, ValidationError{
			Field:   "type",
			Message: "invalid type, must be one of: image, video, youtube",
			Value:   in.Type,
		})
	case in.Type == models.MediaYouTube && hasAsset:
		errors = append(errors, ValidationError{Field: "type", Message: "youtube media cannot carry an uploaded asset"})
	case in.Type != models.MediaYouTube && hasYouTube:
		errors = append(errors, ValidationError{Field: "type", Message: fmt.Sprintf("%s media cannot carry a youtube reference", in.Type)})
	}

	if hasYouTube {
		if _, err := ParseYouTubeID(in.YouTube); err != nil {
			errors = append(errors, ValidationError{Field: "youtube", Message: err.Error(), Value: in.YouTube})
		}
	}

	return errors
}

// ValidateMediaPatch validates the fields present in a media patch
func ValidateMediaPatch(p *models.MediaPatch) []ValidationError {
	var errors []ValidationError
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title must not be empty"})
	}
	return errors
}

// ParseYouTubeID extracts the video id from a bare id or a youtube.com /
// youtu.be URL.
func ParseYouTubeID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if youTubeRegex.MatchString(ref) {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("not a youtube id or url")
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/v/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 {
				id = parts[1]
			}
		}
	default:
		return "", fmt.Errorf("unsupported host %q", u.Host)
	}

	if !youTubeRegex.MatchString(id) {
		return "", fmt.Errorf("could not find a video id")
	}
	return id, nil
}

// ValidateSearchQuery enforces the minimum query length
func ValidateSearchQuery(q string) []ValidationError {
	if len([]rune(strings.TrimSpace(q))) < MinSearchQueryLength {
		return []ValidationError{{
			Field:   "q",
			Message: fmt.Sprintf("query must be at least %d characters", MinSearchQueryLength),
			Value:   q,
		}}
	}
	return nil
}
