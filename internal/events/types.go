package events

import (
	"time"

	"servihub-chat/internal/domain"
)

// Server-to-client event types.
const (
	TypeWelcome             = "welcome"
	TypeAuthenticated       = "authenticated"
	TypeJoinedConversation  = "joined_conversation"
	TypeConversationHistory = "conversation_history"
	TypeNewMessage          = "new_message"
	TypeMessageSent         = "message_sent"
	TypeConversationUpdated = "conversation_updated"
	TypeAvailableQuickChats = "available_quick_chats"
	TypeError               = "error"
	TypePong                = "pong"
)

// Client-to-server event types.
const (
	TypeAuthenticate          = "authenticate"
	TypeJoinConversation      = "join_conversation"
	TypeGetConversation       = "get_conversation"
	TypeSendQuickChat         = "send_quick_chat"
	TypeJoinAllConversations  = "join_all_conversations"
	TypeGetAvailableQuickChat = "get_available_quick_chats"
	TypePing                  = "ping"
)

// Room keys for the fan-out hub.
const (
	roomPrefixConversation = "conversation:"
	roomPrefixUser         = "user:"
)

func ConversationRoom(conversationID string) string {
	return roomPrefixConversation + conversationID
}

func UserRoom(userID string) string {
	return roomPrefixUser + userID
}

// Inbound payloads.

type AuthenticatePayload struct {
	Token string `json:"token"`
}

// ParentRefPayload is the two-field wire form of a parent reference; exactly
// one of the ids must be set.
type ParentRefPayload struct {
	RequestID string `json:"requestId,omitempty"`
	BundleID  string `json:"bundleId,omitempty"`
}

func (p ParentRefPayload) ParentRef() (domain.ParentRef, error) {
	return domain.NewParentRef(p.RequestID, p.BundleID)
}

type SendQuickChatPayload struct {
	RequestID   string `json:"requestId,omitempty"`
	BundleID    string `json:"bundleId,omitempty"`
	QuickChatID string `json:"quickChatId"`
}

type PingPayload struct {
	Echo any `json:"echo,omitempty"`
}

// Outbound payloads.

type WelcomeData struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
}

type AuthenticatedData struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

type JoinedConversationData struct {
	ConversationID string `json:"conversationId"`
}

type ConversationHistoryData struct {
	Conversation domain.Conversation `json:"conversation"`
	Messages     []domain.Message    `json:"messages"`
}

type NewMessageData struct {
	ConversationID string         `json:"conversationId"`
	Message        domain.Message `json:"message"`
	Sender         string         `json:"sender"`
}

type MessageSentData struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

type ConversationUpdatedData struct {
	ConversationID string    `json:"conversationId"`
	LastMessage    string    `json:"lastMessage"`
	LastMessageAt  time.Time `json:"lastMessageAt"`
}

type AvailableQuickChatsData struct {
	QuickChats []domain.QuickChatTemplate `json:"quickChats"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type PongData struct {
	Echo any `json:"echo,omitempty"`
}
