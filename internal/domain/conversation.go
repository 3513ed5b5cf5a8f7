package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is the chat thread document. Messages are embedded: they have
// no lifecycle of their own and are only ever appended.
type Conversation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ParentKind    ParentKind         `bson:"parent_kind" json:"parentKind"`
	ParentID      string             `bson:"parent_id" json:"parentId"`
	CustomerID    string             `bson:"customer_id" json:"customerId"`
	ProviderID    string             `bson:"provider_id,omitempty" json:"providerId,omitempty"`
	Messages      []Message          `bson:"messages" json:"messages"`
	LastMessage   string             `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt time.Time          `bson:"last_message_at,omitempty" json:"lastMessageAt,omitempty"`
	IsActive      bool               `bson:"is_active" json:"isActive"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ParentRef reconstructs the tagged parent reference of the document.
func (c Conversation) ParentRef() ParentRef {
	return ParentRef{Kind: c.ParentKind, ID: c.ParentID}
}

// OtherParty returns the counterpart of userID in the conversation, or ""
// when there is none (unassigned bundle, or userID is not a party).
func (c Conversation) OtherParty(userID string) string {
	switch userID {
	case c.CustomerID:
		return c.ProviderID
	case c.ProviderID:
		return c.CustomerID
	default:
		return ""
	}
}

// Message is an embedded, append-only record inside a Conversation.
type Message struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	SenderID    string             `bson:"sender_id" json:"senderId"`
	SenderRole  Role               `bson:"sender_role" json:"senderRole"`
	Content     string             `bson:"content" json:"content"`
	QuickChatID primitive.ObjectID `bson:"quick_chat_id,omitempty" json:"quickChatId,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}
