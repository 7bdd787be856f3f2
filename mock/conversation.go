package mock

import (
	"context"

	"github.com/fwojciec/poesaver"
)

var _ poesaver.Parser = (*Parser)(nil)

// Parser is a mock implementation of poesaver.Parser.
type Parser struct {
	ParseFn func(html, sourceURL, conversationID string) (*poesaver.Conversation, error)
}

func (p *Parser) Parse(html, sourceURL, conversationID string) (*poesaver.Conversation, error) {
	return p.ParseFn(html, sourceURL, conversationID)
}

var _ poesaver.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of poesaver.Renderer.
type Renderer struct {
	RenderFn func(conv *poesaver.Conversation) (string, error)
}

func (r *Renderer) Render(conv *poesaver.Conversation) (string, error) {
	return r.RenderFn(conv)
}

var _ poesaver.ConversationService = (*ConversationService)(nil)

// ConversationService is a mock implementation of poesaver.ConversationService.
type ConversationService struct {
	CreateConversationFn   func(ctx context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error)
	FindConversationByIDFn func(ctx context.Context, id string) (*poesaver.ConversationArchive, error)
	FindConversationsFn    func(ctx context.Context, filter poesaver.ConversationFilter) ([]*poesaver.ConversationArchive, error)
}

func (s *ConversationService) CreateConversation(ctx context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
	return s.CreateConversationFn(ctx, conv)
}

func (s *ConversationService) FindConversationByID(ctx context.Context, id string) (*poesaver.ConversationArchive, error) {
	return s.FindConversationByIDFn(ctx, id)
}

func (s *ConversationService) FindConversations(ctx context.Context, filter poesaver.ConversationFilter) ([]*poesaver.ConversationArchive, error) {
	return s.FindConversationsFn(ctx, filter)
}
