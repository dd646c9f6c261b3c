package prompt

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fixed literal word substitutions applied to free text before it is
// embedded in a generation prompt, to reduce moderation rejections. This is
// a mitigation, not a content-safety layer; the semantics stay plain
// substring replacement.
var softenings = [][2]string{
	{"victim", "friend"},
	{"prank", "harmless joke"},
	{"attack", "playful move"},
	{"fight", "playful tussle"},
	{"weapon", "prop"},
}

var softener = newSoftener()

func newSoftener() *strings.Replacer {
	titler := cases.Title(language.English)
	pairs := make([]string, 0, len(softenings)*4)
	for _, s := range softenings {
		from, to := s[0], s[1]
		// Capitalized forms first so they win over the lowercase match.
		pairs = append(pairs, titler.String(from), titler.String(to))
		pairs = append(pairs, from, to)
	}
	return strings.NewReplacer(pairs...)
}

// Soften applies the fixed word-for-word replacements, preserving
// capitalization for title-cased occurrences.
func Soften(text string) string {
	return softener.Replace(text)
}
