package goquery

import (
	"regexp"
	"strings"
)

// sharedConversationMarker precedes the conversation in a share page's
// visible text.
const sharedConversationMarker = "Shared conversation"

// trailingChromeMarkers follow the conversation. The region ends at the
// earliest one found.
var trailingChromeMarkers = []string{
	"Continue chat",
	"New chat",
	"Go to @",
	"About · Blog · Careers",
}

// skippedLines are exact UI strings dropped before any other check.
var skippedLines = map[string]bool{
	"ShareSign up":  true,
	"Continue chat": true,
	"New chat":      true,
}

// botNamePatterns capture the bot's display name from marker lines that
// introduce an assistant turn. They are tried in order.
var botNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Bot image for (.+)`),
	regexp.MustCompile(`@(.+) on Poe`),
	regexp.MustCompile(`Go to @(.+) on Poe`),
}

// navigationPhrases mark a line as site chrome when they occur anywhere in
// it, compared case-insensitively.
var navigationPhrases = []string{
	"explore",
	"create",
	"send feedback",
	"poe - fast ai chat",
	"download",
	"follow us",
	"about",
	"blog",
	"careers",
	"help center",
	"privacy policy",
	"terms of service",
	"continue chat",
	"new chat",
	"sharesign up",
	"shared conversation",
}

// botIndicators classify a line as an assistant turn in the last-resort
// classifier. Matching is case-sensitive.
var botIndicators = []string{"Bot", "AI", "Assistant"}

// minClassifiedLineLength is the length a line must exceed to be kept by
// the last-resort classifier.
const minClassifiedLineLength = 10

// BotNameFromLine returns the bot name announced by line, if any.
func BotNameFromLine(line string) (string, bool) {
	for _, re := range botNamePatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// BotMentions returns every bot name announced anywhere in text, in order of
// first appearance and without duplicates.
func BotMentions(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, re := range botNamePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// IsNavigation reports whether line is site navigation or page metadata
// rather than conversation content.
func IsNavigation(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range navigationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// hasBotIndicator reports whether line mentions an assistant.
func hasBotIndicator(line string) bool {
	for _, ind := range botIndicators {
		if strings.Contains(line, ind) {
			return true
		}
	}
	return false
}
