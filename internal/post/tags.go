package post

import (
	"strings"
	"unicode"
)

// ParseTags transforme "art, voyage,  art" en ["art", "voyage"] : espaces
// supprimés, entrées vides et doublons ignorés, ordre d'apparition conservé.
func ParseTags(raw string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
