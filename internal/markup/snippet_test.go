package markup_test

import (
	"testing"

	"github.com/content-lifecycle-api/internal/markup"
	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "the " + markup.MatchStart + "derby" + markup.MatchStop + " tonight", "the <mark>derby</mark> tonight"},
		{"script", markup.MatchStart + "derby" + markup.MatchStop + " <script>x()</script>", "<mark>derby</mark> &lt;script&gt;x()&lt;/script&gt;"},
		{"attribute", `<img src=x onerror="alert(1)"> ` + markup.MatchStart + "roma" + markup.MatchStop, `&lt;img src=x onerror=&quot;alert(1)&quot;&gt; <mark>roma</mark>`},
		{"no match", "a & b", "a &amp; b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, markup.Snippet(tt.in))
		})
	}
}

func TestStripMatchDelimiters(t *testing.T) {
	assert.Equal(t, "derby roma", markup.StripMatchDelimiters("der\x02by ro\x03ma"))
}
