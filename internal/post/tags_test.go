package post

import (
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"single", "art", []string{"art"}},
		{"spaces stripped", " street  art , travel ", []string{"streetart", "travel"}},
		{"duplicates dropped", "a,b,a, b", []string{"a", "b"}},
		{"empty entries dropped", ",,a,,", []string{"a"}},
		{"tabs and newlines", "a\t1,\nb", []string{"a1", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.raw))
		})
	}
}

func TestParseTagsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	tagChars := gen.OneConstOf("a", "b", "c", " ", ",", "\t", "é")
	rawGen := gen.SliceOf(tagChars).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})

	properties.Property("no whitespace, empties or duplicates", prop.ForAll(
		func(raw string) bool {
			seen := map[string]bool{}
			for _, tag := range ParseTags(raw) {
				if tag == "" || seen[tag] || strings.IndexFunc(tag, unicode.IsSpace) >= 0 {
					return false
				}
				seen[tag] = true
			}
			return true
		},
		rawGen,
	))

	properties.Property("keeps first-occurrence order", prop.ForAll(
		func(raw string) bool {
			tags := ParseTags(raw)
			compact := strings.Map(func(r rune) rune {
				if unicode.IsSpace(r) {
					return -1
				}
				return r
			}, raw)
			pos := -1
			for _, tag := range tags {
				idx := firstIndex(strings.Split(compact, ","), tag)
				if idx <= pos {
					return false
				}
				pos = idx
			}
			return true
		},
		rawGen,
	))

	properties.TestingRun(t)
}

func firstIndex(parts []string, tag string) int {
	for i, p := range parts {
		if p == tag {
			return i
		}
	}
	return -1
}
