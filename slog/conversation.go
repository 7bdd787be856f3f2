package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/poesaver"
)

// Ensure LoggingConversationService implements poesaver.ConversationService.
var _ poesaver.ConversationService = (*LoggingConversationService)(nil)

// LoggingConversationService wraps a ConversationService with logging.
type LoggingConversationService struct {
	next   poesaver.ConversationService
	logger *slog.Logger
}

// NewLoggingConversationService creates a new LoggingConversationService.
func NewLoggingConversationService(next poesaver.ConversationService, logger *slog.Logger) *LoggingConversationService {
	return &LoggingConversationService{next: next, logger: logger}
}

// CreateConversation delegates to the wrapped service and logs the operation.
func (s *LoggingConversationService) CreateConversation(ctx context.Context, conv *poesaver.Conversation) (archive *poesaver.ConversationArchive, err error) {
	defer func(begin time.Time) {
		id := ""
		if archive != nil {
			id = archive.ID
		}
		s.logger.Info("archive conversation",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateConversation(ctx, conv)
}

// FindConversationByID delegates to the wrapped service and logs the operation.
func (s *LoggingConversationService) FindConversationByID(ctx context.Context, id string) (archive *poesaver.ConversationArchive, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find conversation",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindConversationByID(ctx, id)
}

// FindConversations delegates to the wrapped service and logs the operation.
func (s *LoggingConversationService) FindConversations(ctx context.Context, filter poesaver.ConversationFilter) (archives []*poesaver.ConversationArchive, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find conversations",
			"count", len(archives),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindConversations(ctx, filter)
}
