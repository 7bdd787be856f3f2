package poesaver

import (
	"context"
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

// Role values.
const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Generic labels used when no specific name can be determined.
const (
	HumanSender          = "User"
	AssistantSender      = "Bot"
	UnknownAssistant     = "Unknown Bot"
	UntitledConversation = "Untitled Conversation"
)

// Message represents one turn of a conversation.
type Message struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Role    Role   `json:"role"`

	// Timestamp is an ISO-8601 instant when the page supplied a numeric
	// creation time, the raw value when it did not parse, or empty.
	Timestamp string `json:"timestamp,omitempty"`
}

// Metadata holds page-level information collected independently of the
// message list.
type Metadata struct {
	PageTitle            string   `json:"pageTitle,omitempty"`
	Description          string   `json:"description,omitempty"`
	MentionedBots        []string `json:"mentionedBots,omitempty"`
	IsSharedConversation bool     `json:"isSharedConversation,omitempty"`
}

// Conversation is the full record extracted from one share page.
// Messages are in conversation order and are never reordered.
type Conversation struct {
	Title          string     `json:"title"`
	Messages       []*Message `json:"messages"`
	AssistantName  string     `json:"assistantName"`
	ConversationID string     `json:"conversationId"`
	SourceURL      string     `json:"sourceUrl"`
	ExtractedAt    string     `json:"extractedAt"`
	Metadata       Metadata   `json:"metadata"`
}

// CountByRole returns the number of human and assistant messages.
func (c *Conversation) CountByRole() (human, assistant int) {
	for _, m := range c.Messages {
		switch m.Role {
		case RoleHuman:
			human++
		case RoleAssistant:
			assistant++
		}
	}
	return human, assistant
}

// WordCount returns the number of whitespace-separated words across all
// message bodies.
func (c *Conversation) WordCount() int {
	n := 0
	for _, m := range c.Messages {
		n += len(strings.Fields(m.Content))
	}
	return n
}

// Parser turns raw share-page markup into a Conversation.
type Parser interface {
	// Parse extracts the conversation from html. sourceURL and
	// conversationID are copied into the record as-is.
	// Pages without any recoverable turns yield a record with no messages,
	// not an error.
	Parse(html, sourceURL, conversationID string) (*Conversation, error)
}

// RenderOptions toggles the optional sections of a rendered document.
type RenderOptions struct {
	IncludeMetadata bool
	IncludeFooter   bool
}

// DefaultRenderOptions returns options with every optional section enabled.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{IncludeMetadata: true, IncludeFooter: true}
}

// Renderer formats a Conversation as a document.
type Renderer interface {
	// Render returns the document for conv. Rendering is deterministic:
	// the same record and options always produce the same output.
	Render(conv *Conversation) (string, error)
}

// ConversationArchive is a stored extraction of a conversation.
type ConversationArchive struct {
	ID           string        `json:"id"`
	ContentHash  string        `json:"contentHash"`
	ArchivedAt   time.Time     `json:"archivedAt"`
	Conversation *Conversation `json:"conversation"`
}

// ConversationService represents a service for archiving extracted conversations.
type ConversationService interface {
	// CreateConversation archives a conversation and returns the stored record.
	// Returns ECONFLICT if an identical extraction of the same share is
	// already archived.
	CreateConversation(ctx context.Context, conv *Conversation) (*ConversationArchive, error)

	// FindConversationByID retrieves an archived conversation by ID.
	// Returns ENOTFOUND if it does not exist.
	FindConversationByID(ctx context.Context, id string) (*ConversationArchive, error)

	// FindConversations retrieves archived conversations matching the filter,
	// most recently extracted first.
	FindConversations(ctx context.Context, filter ConversationFilter) ([]*ConversationArchive, error)
}

// ConversationFilter represents a filter for FindConversations.
type ConversationFilter struct {
	ConversationID *string `json:"conversationId"`
	ContentHash    *string `json:"contentHash"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
