package markup

import (
	"strings"

	"github.com/yuin/goldmark/util"
)

// Match delimiters handed to the search engine in place of <mark> tags.
// They survive HTML escaping untouched and never occur in stored bodies.
const (
	MatchStart = "\x02"
	MatchStop  = "\x03"
)

// StripMatchDelimiters removes delimiter bytes from text before it is
// highlighted, so only the engine's own markers are turned into tags.
func StripMatchDelimiters(s string) string {
	return strings.NewReplacer(MatchStart, "", MatchStop, "").Replace(s)
}

// Snippet escapes a highlighted excerpt and turns the match delimiters into
// <mark> elements. Any markup in the source comes out as inert text.
func Snippet(highlighted string) string {
	escaped := string(util.EscapeHTML([]byte(highlighted)))
	return strings.NewReplacer(MatchStart, "<mark>", MatchStop, "</mark>").Replace(escaped)
}
