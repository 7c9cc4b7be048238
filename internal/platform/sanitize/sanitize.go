// Package sanitize strips markup from creator-supplied free text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

const maxPasses = 3

// Text removes every tag and collapses whitespace. Entities produced by the policy are
// unescaped so stored text reads as plain text.
func Text(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	clean := html.UnescapeString(strict.Sanitize(raw))
	// Unescaping can resurrect a tag from "&lt;"; repeat until the text is stable.
	for i := 0; i < maxPasses && strings.ContainsAny(clean, "<>"); i++ {
		next := html.UnescapeString(strict.Sanitize(clean))
		if next == clean {
			break
		}
		clean = next
	}
	return strings.Join(strings.Fields(clean), " ")
}

func Strings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := Text(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func Map(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := Text(k)
		if key == "" {
			continue
		}
		out[key] = Text(v)
	}
	return out
}
