package services

import (
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`(?:^|[^\w@])@([A-Za-z0-9]{3,30})\b`)

// ExtractMentions returns the distinct usernames mentioned as @username,
// lowercased, in order of first appearance.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Excerpt shortens s to at most n runes for notification payloads.
func Excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
