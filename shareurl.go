package poesaver

import (
	"net/url"
	"regexp"
	"strings"
)

var sharePathRe = regexp.MustCompile(`^/s/([a-zA-Z0-9_-]+)$`)

// IsShareURL reports whether rawURL is a Poe share link of the form
// https://poe.com/s/<id>.
func IsShareURL(rawURL string) bool {
	_, ok := ShareID(rawURL)
	return ok
}

// ShareID returns the conversation identifier from a Poe share link.
// The bool result is false if rawURL is not a share link.
func ShareID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	switch strings.ToLower(u.Host) {
	case "poe.com", "www.poe.com":
	default:
		return "", false
	}

	m := sharePathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	return m[1], true
}
