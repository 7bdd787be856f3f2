// Package markdown renders conversations as markdown documents.
package markdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/poesaver"
)

// Ensure Renderer implements poesaver.Renderer at compile time.
var _ poesaver.Renderer = (*Renderer)(nil)

// Labels used in rendered documents.
const (
	untitled             = poesaver.UntitledConversation
	defaultAssistantName = "AI Assistant"
	conversationHeading  = "## Conversation"
	humanHeading         = "### 👤 User"
	assistantHeading     = "### 🤖 "
	exportedLayout       = "2006-01-02 15:04:05"
	footerCredit         = "*Exported with poesaver*"
	separator            = "---"
)

// Renderer formats conversations as markdown documents.
type Renderer struct {
	opts poesaver.RenderOptions
}

// NewRenderer creates a Renderer with the given options.
func NewRenderer(opts poesaver.RenderOptions) *Renderer {
	return &Renderer{opts: opts}
}

// Render returns the markdown document for conv.
func (r *Renderer) Render(conv *poesaver.Conversation) (string, error) {
	if conv == nil {
		return "", poesaver.Errorf(poesaver.EINVALID, "conversation required")
	}

	parts := []string{"# " + CleanTitle(conv.Title) + "\n"}
	if r.opts.IncludeMetadata {
		parts = append(parts, metadataBlock(conv))
	}
	parts = append(parts, separator+"\n", conversationHeading+"\n")

	for _, msg := range conv.Messages {
		if section := formatMessage(msg, conv.AssistantName); section != "" {
			parts = append(parts, section)
		}
	}

	if r.opts.IncludeFooter {
		parts = append(parts, separator+"\n", footer(conv))
	}
	return strings.Join(parts, "\n"), nil
}

func metadataBlock(conv *poesaver.Conversation) string {
	var lines []string
	if conv.SourceURL != "" {
		lines = append(lines, "**Source**: "+conv.SourceURL)
	}
	if conv.AssistantName != "" && conv.AssistantName != poesaver.UnknownAssistant {
		lines = append(lines, "**Assistant**: "+conv.AssistantName)
	}
	if conv.ConversationID != "" {
		lines = append(lines, "**Conversation ID**: "+conv.ConversationID)
	}
	if conv.ExtractedAt != "" {
		exported := conv.ExtractedAt
		if t, err := time.Parse(time.RFC3339, conv.ExtractedAt); err == nil {
			exported = t.Format(exportedLayout)
		}
		lines = append(lines, "**Exported**: "+exported)
	}
	if pt := conv.Metadata.PageTitle; pt != "" && pt != conv.Title {
		lines = append(lines, "**Page Title**: "+pt)
	}
	human, assistant := conv.CountByRole()
	lines = append(lines, fmt.Sprintf("**Messages**: %d (%d user, %d assistant)", len(conv.Messages), human, assistant))
	return strings.Join(lines, "\n") + "\n"
}

// formatMessage renders one turn. It returns "" for turns with nothing left
// after cleanup, and an error placeholder when formatting fails.
func formatMessage(msg *poesaver.Message, assistantName string) (section string) {
	defer func() {
		if recover() != nil {
			section = "### ❌ Formatting error\nUnable to format message content\n"
		}
	}()

	content := CleanContent(msg.Content)
	if content == "" {
		return ""
	}

	header := humanHeading
	if msg.Role != poesaver.RoleHuman {
		header = assistantHeading + displayName(msg.Sender, assistantName)
	}
	return header + "\n" + FormatContent(content) + "\n"
}

func displayName(sender, assistantName string) string {
	name := sender
	if name == "" || name == poesaver.AssistantSender {
		name = assistantName
	}
	if name == "" || name == poesaver.UnknownAssistant {
		return defaultAssistantName
	}
	return name
}

func footer(conv *poesaver.Conversation) string {
	lines := []string{footerCredit}
	if conv.SourceURL != "" {
		lines = append(lines, "*Original link: "+conv.SourceURL+"*")
	}
	return strings.Join(lines, "\n")
}
