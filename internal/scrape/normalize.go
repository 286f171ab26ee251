package scrape

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeRegionName converts a URL slug into a display name: hyphens
// become spaces and each word gets a capital first letter. Overrides
// correct the names that rule mangles ("Washington Dc" is not a word
// pair), keyed by the cased form so the table reads like the output.
func NormalizeRegionName(slug string, overrides map[string]string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}
	name := strings.Join(words, " ")
	if fixed, ok := overrides[name]; ok {
		return fixed
	}
	return name
}
