// Package textutil extracts structured tokens from free-form note bodies,
// normalizes tag labels so lookups are stable across input sources, and
// sanitizes filenames for object keys and paths.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NormalizeLabel canonicalizes a tag label: Unicode NFC, case folded,
// surrounding whitespace removed. Empty input normalizes to "".
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	return folder.String(norm.NFC.String(label))
}

// ExtractHashtags returns the normalized, deduplicated labels of all #tag
// tokens in body, in order of first appearance. The leading # is dropped.
func ExtractHashtags(body string) []string {
	return extractMarked(body, '#')
}

// ExtractMentions returns the normalized, deduplicated names of all @name
// tokens in body, in order of first appearance.
func ExtractMentions(body string) []string {
	return extractMarked(body, '@')
}

func extractMarked(body string, marker rune) []string {
	var tokens []string
	seen := make(map[string]struct{})
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		if runes[i] != marker {
			continue
		}
		// A marker inside a word (e.g. an email address) is not a token.
		if i > 0 && isTokenRune(runes[i-1]) {
			continue
		}
		j := i + 1
		for j < len(runes) && isTokenRune(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		token := NormalizeLabel(string(runes[i+1 : j]))
		if token == "" {
			continue
		}
		if _, dup := seen[token]; !dup {
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
		i = j - 1
	}
	return tokens
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
