// Package goquery extracts conversations from shared Poe pages.
package goquery

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/poesaver"
)

// Ensure Parser implements poesaver.Parser.
var _ poesaver.Parser = (*Parser)(nil)

// maxDerivedTitleLength bounds a title taken from the first user message.
const maxDerivedTitleLength = 100

// Parser turns the source of a shared-conversation page into a
// poesaver.Conversation. It is stateless and safe for concurrent use.
type Parser struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger that receives extraction warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithClock sets the function used to stamp ExtractedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the conversation, title, assistant name and page metadata
// from rawHTML.
func (p *Parser) Parse(rawHTML, sourceURL, conversationID string) (*poesaver.Conversation, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, poesaver.Errorf(poesaver.EINVALID, "failed to parse HTML: %v", err)
	}

	text := VisibleText(doc.Selection)
	md := p.metadata(doc, text)
	messages := p.extractMessages(doc, rawHTML, text)

	return &poesaver.Conversation{
		Title:          deriveTitle(md.PageTitle, messages),
		Messages:       messages,
		AssistantName:  resolveAssistantName(messages, md),
		ConversationID: conversationID,
		SourceURL:      sourceURL,
		ExtractedAt:    p.now().UTC().Format(time.RFC3339),
		Metadata:       md,
	}, nil
}

// extractMessages runs the extraction cascade: the embedded Next.js payload,
// then turn segmentation of the visible text, then line classification when
// the page has no shared-conversation region at all.
func (p *Parser) extractMessages(doc *goquery.Document, rawHTML, text string) []*poesaver.Message {
	if payload, ok := nextDataPayload(doc, rawHTML); ok {
		if messages, ok := p.ExtractStructured(payload); ok && len(messages) > 0 {
			p.logger.Debug("extracted messages from structured payload", "count", len(messages))
			return messages
		}
	} else {
		p.logger.Warn("no structured payload found")
	}

	region, found := ExtractRegion(text)
	messages := p.SegmentTurns(region)
	if len(messages) > 0 {
		p.logger.Debug("extracted messages from visible text", "count", len(messages), "region", found)
		return messages
	}
	if found {
		return nil
	}

	messages = p.ClassifyLines(text)
	p.logger.Debug("classified visible text lines", "count", len(messages))
	return messages
}

func deriveTitle(pageTitle string, messages []*poesaver.Message) string {
	title := strings.TrimSpace(strings.ReplaceAll(pageTitle, " - Poe", ""))
	if title != "" && title != "Poe" && poesaver.IsValidTitle(title) {
		return title
	}
	for _, msg := range messages {
		if msg.Role != poesaver.RoleHuman || !poesaver.IsValidContent(msg.Content) {
			continue
		}
		if len([]rune(msg.Content)) > maxDerivedTitleLength {
			return truncateRunes(msg.Content, maxDerivedTitleLength) + "..."
		}
		return msg.Content
	}
	return poesaver.UntitledConversation
}

func resolveAssistantName(messages []*poesaver.Message, md poesaver.Metadata) string {
	for _, msg := range messages {
		if msg.Role == poesaver.RoleAssistant && msg.Sender != "" && msg.Sender != poesaver.AssistantSender {
			return msg.Sender
		}
	}
	if len(md.MentionedBots) > 0 {
		return md.MentionedBots[0]
	}
	return poesaver.UnknownAssistant
}
