package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/poesaver"
)

// Ensure LoggingParser implements poesaver.Parser.
var _ poesaver.Parser = (*LoggingParser)(nil)

// LoggingParser wraps a Parser with logging of every parse.
type LoggingParser struct {
	next   poesaver.Parser
	logger *slog.Logger
}

// NewLoggingParser creates a new LoggingParser.
func NewLoggingParser(next poesaver.Parser, logger *slog.Logger) *LoggingParser {
	return &LoggingParser{next: next, logger: logger}
}

// Parse delegates to the wrapped parser and logs what was extracted.
func (p *LoggingParser) Parse(html, sourceURL, conversationID string) (conv *poesaver.Conversation, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", sourceURL,
			"duration", time.Since(begin),
		}
		if conv != nil {
			human, assistant := conv.CountByRole()
			attrs = append(attrs,
				"title", conv.Title,
				"assistant", conv.AssistantName,
				"human_messages", human,
				"assistant_messages", assistant,
			)
		}
		if err != nil {
			p.logger.Error("parse", append(attrs, "err", err)...)
			return
		}
		if conv != nil && len(conv.Messages) == 0 {
			p.logger.Warn("parse found no messages", attrs...)
			return
		}
		p.logger.Info("parse", attrs...)
	}(time.Now())
	return p.next.Parse(html, sourceURL, conversationID)
}
