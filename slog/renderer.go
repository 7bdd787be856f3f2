package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/poesaver"
)

// Ensure LoggingRenderer implements poesaver.Renderer.
var _ poesaver.Renderer = (*LoggingRenderer)(nil)

// LoggingRenderer wraps a Renderer with logging.
type LoggingRenderer struct {
	next   poesaver.Renderer
	logger *slog.Logger
}

// NewLoggingRenderer creates a new LoggingRenderer.
func NewLoggingRenderer(next poesaver.Renderer, logger *slog.Logger) *LoggingRenderer {
	return &LoggingRenderer{next: next, logger: logger}
}

// Render delegates to the wrapped renderer and logs the operation.
func (r *LoggingRenderer) Render(conv *poesaver.Conversation) (out string, err error) {
	defer func(begin time.Time) {
		id := ""
		if conv != nil {
			id = conv.ConversationID
		}
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelError
		}
		r.logger.Log(context.Background(), level, "render",
			"conversation", id,
			"bytes", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Render(conv)
}
