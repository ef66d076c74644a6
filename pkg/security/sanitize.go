package security

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFilenameLength bounds sanitized file names in bytes
const MaxFilenameLength = 128

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	whitespace          = regexp.MustCompile(`\s+`)
)

// SanitizeString trims input and removes null bytes and control characters
// other than newlines and tabs
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(removeControlCharacters(input))
}

// NormalizeText sanitizes a single-line value and collapses inner whitespace
func NormalizeText(input string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(SanitizeString(input), " "))
}

// SanitizeFilename reduces a client-supplied name to a safe object key segment.
// Directories are stripped, runs of unsafe characters become "_", and an
// empty result falls back to "file".
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(TruncateString(name, MaxFilenameLength), "_.")
	if name == "" {
		return "file"
	}
	return name
}

// TruncateString cuts input to at most maxLength bytes without splitting a rune
func TruncateString(input string, maxLength int) string {
	if len(input) <= maxLength {
		return input
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut]
}

// removeControlCharacters removes control characters except newlines and tabs
func removeControlCharacters(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
