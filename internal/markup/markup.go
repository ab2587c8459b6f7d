// Package markup renders article bodies from Markdown to HTML.
package markup

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the source is omitted from the output, so rendered bodies
// are safe to serve without a separate sanitizer pass.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// Render converts an article body to sanitized HTML
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render body: %w", err)
	}
	return buf.String(), nil
}
