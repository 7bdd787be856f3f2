package markdown

import (
	"regexp"
	"strings"
)

// maxTitleLength is the longest title kept intact; longer titles are cut to
// leave room for an ellipsis.
const maxTitleLength = 100

// titleNoise is removed from titles before whitespace is collapsed.
var titleNoise = []string{"Poe - Fast AI Chat", " - Poe"}

var (
	blankRunRe  = regexp.MustCompile(`\n\s*\n\s*\n`)
	spaceRunRe  = regexp.MustCompile(`[ \t]+`)
	anySpacesRe = regexp.MustCompile(`\s+`)
)

// leakedChrome matches interface text that can end up inside message bodies.
var leakedChrome = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ShareSign up`),
	regexp.MustCompile(`(?i)Continue chat`),
	regexp.MustCompile(`(?i)New chat`),
	regexp.MustCompile(`(?i)Go to @\w+ on Poe`),
	regexp.MustCompile(`(?i)Bot image for \w+`),
}

// codeIndicators are matched against lowercased content. Two or more hits
// mark the content as code.
var codeIndicators = []string{
	"{", "}", "[", "]", "()", "=>", "==", "!=",
	"function", "def ", "class ", "import ", "from ",
	"```", "console", "bash", "python", "javascript",
	"nodes:", "edges:", "source:", "target:",
}

const minCodeIndicators = 2

// languageFamilies are tried in order; the first family with a keyword in
// the lowercased content names the fence language.
var languageFamilies = []struct {
	lang     string
	keywords []string
}{
	{lang: "python", keywords: []string{"def ", "import ", "class ", "print("}},
	{lang: "javascript", keywords: []string{"function", "const ", "let ", "var "}},
	{lang: "yaml", keywords: []string{"nodes:", "edges:", "source:", "target:"}},
	{lang: "bash", keywords: []string{"bash", "shell", "$", "cd ", "ls ", "mkdir"}},
}

// yamlMarkers make otherwise plain content render as a YAML block.
var yamlMarkers = []string{"nodes:", "edges:"}

// listItemPatterns recognize list entries that lack a markdown bullet.
var listItemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.`),
	regexp.MustCompile(`^[A-Z]\)`),
	regexp.MustCompile(`^•`),
}

// copyButtonPrefix starts lines left behind by copy-to-clipboard buttons.
const copyButtonPrefix = "Copy"

// CleanTitle strips site branding from title, collapses whitespace and
// limits its length.
func CleanTitle(title string) string {
	for _, noise := range titleNoise {
		title = strings.TrimSpace(strings.ReplaceAll(title, noise, ""))
	}
	title = anySpacesRe.ReplaceAllString(title, " ")
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength-3]) + "..."
	}
	if title == "" {
		return untitled
	}
	return title
}

// CleanContent normalizes whitespace and removes leaked interface text.
func CleanContent(content string) string {
	content = blankRunRe.ReplaceAllString(content, "\n\n")
	content = spaceRunRe.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)
	for _, re := range leakedChrome {
		content = re.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// FormatContent renders cleaned message content as markdown: code goes into
// a fenced block, anything else is treated as prose.
func FormatContent(content string) string {
	if content == "" {
		return ""
	}
	if LooksLikeCode(content) {
		return fence(DetectLanguage(content), content)
	}
	if isYAML(content) {
		return fence("yaml", content)
	}

	lines := strings.Split(content, "\n")
	formatted := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, copyButtonPrefix):
			continue
		case isListItem(line):
			line = "- " + line
		}
		formatted = append(formatted, line)
	}
	return strings.Join(formatted, "\n")
}

// LooksLikeCode reports whether content carries enough code indicators to
// be rendered verbatim.
func LooksLikeCode(content string) bool {
	lower := strings.ToLower(content)
	n := 0
	for _, ind := range codeIndicators {
		if strings.Contains(lower, ind) {
			n++
		}
	}
	return n >= minCodeIndicators
}

// DetectLanguage guesses the fence language for code content. It returns
// "" when no family matches.
func DetectLanguage(content string) string {
	lower := strings.ToLower(content)
	for _, family := range languageFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(lower, kw) {
				return family.lang
			}
		}
	}
	if strings.HasPrefix(lower, "yaml") {
		return "yaml"
	}
	return ""
}

func isYAML(content string) bool {
	if strings.HasPrefix(strings.TrimSpace(content), "yaml") {
		return true
	}
	for _, m := range yamlMarkers {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}

func isListItem(line string) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "+") {
		return false
	}
	for _, re := range listItemPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func fence(lang, content string) string {
	return "```" + lang + "\n" + content + "\n```"
}
