package fs

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fallback names for titles that cannot be turned into a file name.
const (
	UntitledName  = "untitled"
	CorruptedName = "corrupted_conversation"
)

// MaxNameLength is the longest sanitized name, in characters.
const MaxNameLength = 100

var (
	reservedCharsRe = regexp.MustCompile(`[<>:"/\\|?*]`)
	controlCharsRe  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	symbolRunRe     = regexp.MustCompile(`[^\x00-\x7F\p{L}\p{N}]{5,}`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a conversation title into a name that is safe to
// use as a file name on common filesystems. Letters and digits of any
// script are kept; path separators, reserved characters and long runs of
// non-ASCII symbols become underscores.
func SanitizeFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		return UntitledName
	}
	if !isValidNameContent(name) {
		return CorruptedName
	}

	name = norm.NFC.String(name)
	name = reservedCharsRe.ReplaceAllString(name, "_")
	name = controlCharsRe.ReplaceAllString(name, "")
	name = symbolRunRe.ReplaceAllString(name, "_")
	name = spaceRunRe.ReplaceAllString(name, " ")
	name = strings.Trim(name, ". ")
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) || r == '_' || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, name)

	if r := []rune(name); len(r) > MaxNameLength {
		name = string(r[:MaxNameLength-3]) + "..."
	}

	if strings.TrimSpace(name) == "" || !isValidNameContent(name) {
		return UntitledName
	}
	return name
}

// isValidNameContent rejects text that is mostly unprintable or symbols.
func isValidNameContent(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	total, printable, special := 0, 0, 0
	for _, r := range s {
		total++
		if unicode.IsPrint(r) {
			printable++
		}
		if !(unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) || r == '-' || r == '_' || r == '.') {
			special++
		}
	}
	if float64(printable)/float64(total) < 0.8 {
		return false
	}
	return float64(special) <= float64(total)*0.3
}
