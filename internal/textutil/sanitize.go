package textutil

import "strings"

// fileNameReplacer strips the characters that would corrupt an object key or
// a local path. Separators and colons become dashes so the name keeps some
// shape; the rest are dropped outright.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a user-supplied filename safe to embed in a storage
// key segment. Slashes, backslashes, colons, and asterisks become dashes;
// other unsafe characters are removed. Surrounding whitespace is trimmed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
