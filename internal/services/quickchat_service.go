package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"servihub-chat/internal/domain"
	"servihub-chat/internal/repository"
	chaterrors "servihub-chat/pkg/errors"
)

// QuickChatService is the message pipeline: it turns a canned-phrase template
// into an appended conversation message.
type QuickChatService struct {
	templates     repository.QuickChatRepository
	conversations *ConversationService
	convRepo      repository.ConversationRepository
	logger        *zap.Logger
}

func NewQuickChatService(
	templates repository.QuickChatRepository,
	conversations *ConversationService,
	convRepo repository.ConversationRepository,
	logger *zap.Logger,
) *QuickChatService {
	return &QuickChatService{
		templates:     templates,
		conversations: conversations,
		convRepo:      convRepo,
		logger:        logger,
	}
}

// Delivery is the result of a successful send.
type Delivery struct {
	Conversation domain.Conversation
	Message      domain.Message
}

// SendQuickMessage validates template ownership, resolves the conversation
// (inheriting its access control), appends the message and bumps the
// template's usage counter. The counter is telemetry: a failed increment
// after the message is saved does not fail the delivery.
func (s *QuickChatService) SendQuickMessage(ctx context.Context, ident Identity, ref domain.ParentRef, templateID string) (Delivery, error) {
	tplID, err := primitive.ObjectIDFromHex(templateID)
	if err != nil {
		return Delivery{}, chaterrors.ErrTemplateNotFound
	}

	tpl, err := s.templates.GetForOwner(ctx, tplID, ident.UserID, ident.Role)
	if err != nil {
		return Delivery{}, err
	}

	conv, err := s.conversations.ResolveOrCreate(ctx, ident, ref)
	if err != nil {
		return Delivery{}, err
	}

	msg := domain.Message{
		ID:          primitive.NewObjectID(),
		SenderID:    ident.UserID,
		SenderRole:  ident.Role,
		Content:     tpl.Content,
		QuickChatID: tpl.ID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.convRepo.AppendMessage(ctx, conv.ID, msg); err != nil {
		return Delivery{}, fmt.Errorf("%w: %w", chaterrors.ErrConversationUnavailable, err)
	}

	if err := s.templates.IncrementUsage(ctx, tpl.ID); err != nil {
		s.logger.Warn("usage count increment failed",
			zap.String("template_id", tpl.ID.Hex()),
			zap.Error(err),
		)
	}

	conv.Messages = append(conv.Messages, msg)
	conv.LastMessage = msg.Content
	conv.LastMessageAt = msg.CreatedAt
	conv.UpdatedAt = msg.CreatedAt

	return Delivery{Conversation: conv, Message: msg}, nil
}

// ListTemplates returns the caller's active quick chat templates.
func (s *QuickChatService) ListTemplates(ctx context.Context, ident Identity) ([]domain.QuickChatTemplate, error) {
	return s.templates.ListForOwner(ctx, ident.UserID, ident.Role)
}
