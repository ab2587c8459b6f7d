package validation

import "strings"

// NormalizeTag trims and lower-cases one tag
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags normalizes, drops empties and collapses duplicates while
// keeping first-seen order. Entries that themselves contain commas are split.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, raw := range tags {
		for _, part := range strings.Split(raw, ",") {
			tag := NormalizeTag(part)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// JoinTags serializes a tag set for storage
func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}

// SplitTags parses the stored comma-joined form
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(s, ","))
}

// RewriteTags substitutes every tag found in sources with target and
// de-duplicates the result, preserving the order of the remaining tags.
// It reports whether anything changed.
func RewriteTags(tags []string, sources map[string]bool, target string) ([]string, bool) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	changed := false
	for _, tag := range tags {
		if sources[tag] && tag != target {
			tag = target
			changed = true
		}
		if seen[tag] {
			changed = true
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, changed
}
