package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"servihub-chat/internal/domain"
	"servihub-chat/internal/repository"
	chaterrors "servihub-chat/pkg/errors"
)

// ConversationService materializes conversations lazily: the conversation
// for a parent entity is created on first join or send, never ahead of time
// and never twice.
type ConversationService struct {
	requests      repository.ServiceRequestStore
	bundles       repository.BundleStore
	conversations repository.ConversationRepository
	logger        *zap.Logger
}

func NewConversationService(
	requests repository.ServiceRequestStore,
	bundles repository.BundleStore,
	conversations repository.ConversationRepository,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		requests:      requests,
		bundles:       bundles,
		conversations: conversations,
		logger:        logger,
	}
}

// ResolveOrCreate finds the conversation bound to ref, creating it if it does
// not exist yet. The access check runs against the parent entity before any
// lookup or insert, so a denied request never leaves a conversation behind.
func (s *ConversationService) ResolveOrCreate(ctx context.Context, ident Identity, ref domain.ParentRef) (domain.Conversation, error) {
	seed, err := s.loadParent(ctx, ref)
	if err != nil {
		return domain.Conversation{}, err
	}

	if !seed.authorized(ident.UserID) {
		return domain.Conversation{}, chaterrors.ErrAccessDenied
	}

	conv, err := s.conversations.FindByParent(ctx, ref)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, chaterrors.ErrNotFound) {
		return domain.Conversation{}, fmt.Errorf("%w: %w", chaterrors.ErrConversationUnavailable, err)
	}

	conv = domain.Conversation{
		ParentKind: ref.Kind,
		ParentID:   ref.ID,
		CustomerID: seed.customerID,
		ProviderID: seed.providerID,
		IsActive:   true,
	}
	err = s.conversations.Create(ctx, &conv)
	if err == nil {
		s.logger.Info("conversation created",
			zap.String("conversation_id", conv.ID.Hex()),
			zap.String("parent_ref", ref.String()),
		)
		return conv, nil
	}
	if errors.Is(err, chaterrors.ErrAlreadyExists) {
		// A concurrent first-joiner won the insert race; their document is
		// the conversation for this parent.
		conv, err := s.conversations.FindByParent(ctx, ref)
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("%w: %w", chaterrors.ErrConversationUnavailable, err)
		}
		return conv, nil
	}
	return domain.Conversation{}, fmt.Errorf("%w: %w", chaterrors.ErrConversationUnavailable, err)
}

// ListForUser returns the conversations the user is a party of.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", chaterrors.ErrConversationUnavailable, err)
	}
	return convs, nil
}

// parentSeed carries what a parent entity contributes to a new conversation:
// the party ids that seed the document and double as its authorized set.
type parentSeed struct {
	customerID string
	providerID string
}

func (p parentSeed) authorized(userID string) bool {
	if userID == "" {
		return false
	}
	return userID == p.customerID || (p.providerID != "" && userID == p.providerID)
}

func (s *ConversationService) loadParent(ctx context.Context, ref domain.ParentRef) (parentSeed, error) {
	switch ref.Kind {
	case domain.ParentServiceRequest:
		req, err := s.requests.GetByID(ctx, ref.ID)
		if err != nil {
			return parentSeed{}, err
		}
		return parentSeed{customerID: req.CustomerID, providerID: req.ProviderID}, nil
	case domain.ParentBundle:
		// Bundle participants beyond the creator are deliberately not part
		// of the conversation: it is a creator/provider channel.
		b, err := s.bundles.GetByID(ctx, ref.ID)
		if err != nil {
			return parentSeed{}, err
		}
		return parentSeed{customerID: b.CreatorID, providerID: b.ProviderID}, nil
	default:
		return parentSeed{}, chaterrors.ErrInvalidReference
	}
}
