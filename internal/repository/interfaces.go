package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servihub-chat/internal/domain"
)

// Account stores are partitioned by role: a subject id is looked up against
// the customer store first, then the provider store.

type CustomerStore interface {
	GetByID(ctx context.Context, id string) (domain.Customer, error)
}

type ProviderStore interface {
	GetByID(ctx context.Context, id string) (domain.Provider, error)
}

type ServiceRequestStore interface {
	GetByID(ctx context.Context, id string) (domain.ServiceRequest, error)
}

type BundleStore interface {
	GetByID(ctx context.Context, id string) (domain.Bundle, error)
}

type ConversationRepository interface {
	// FindByParent returns the single conversation bound to ref, or
	// chaterrors.ErrNotFound.
	FindByParent(ctx context.Context, ref domain.ParentRef) (domain.Conversation, error)

	// Create inserts c and fills in its ID. A second conversation for the
	// same parent reference fails with chaterrors.ErrAlreadyExists; the
	// caller re-fetches the winner.
	Create(ctx context.Context, c *domain.Conversation) error

	// AppendMessage appends m to the conversation's message sequence and
	// updates the last-message summary fields in the same write.
	AppendMessage(ctx context.Context, conversationID primitive.ObjectID, m domain.Message) error

	// ListForUser returns every conversation the user takes part in, most
	// recently active first.
	ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error)
}

type QuickChatRepository interface {
	// GetForOwner returns the active template only when both owner id and
	// owner role match; anything else is chaterrors.ErrTemplateNotFound.
	GetForOwner(ctx context.Context, id primitive.ObjectID, ownerID string, role domain.Role) (domain.QuickChatTemplate, error)

	ListForOwner(ctx context.Context, ownerID string, role domain.Role) ([]domain.QuickChatTemplate, error)

	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
}
