package server

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"servihub-chat/internal/domain"
	"servihub-chat/internal/events"
	"servihub-chat/internal/services"
	chaterrors "servihub-chat/pkg/errors"
)

// PresenceAnnouncer publishes presence transitions to interested outside
// parties. Optional; the gateway works without one.
type PresenceAnnouncer interface {
	Online(ctx context.Context, userID, clientID string)
	Offline(ctx context.Context, userID string)
}

type eventHandler struct {
	requiresAuth bool
	handle       func(ctx context.Context, c *Client, payload json.RawMessage)
}

// Gateway is the connection lifecycle controller: handshake authentication,
// event routing and disconnect cleanup. Events are routed through a dispatch
// table keyed by event type; each entry states whether it requires the
// authenticated state.
type Gateway struct {
	identity      *services.IdentityService
	conversations *services.ConversationService
	quickchats    *services.QuickChatService
	hub           *Hub
	presence      *PresenceRegistry
	dispatcher    *Dispatcher
	announcer     PresenceAnnouncer
	logger        *WebSocketLogger

	handlers map[string]eventHandler
}

func NewGateway(
	identity *services.IdentityService,
	conversations *services.ConversationService,
	quickchats *services.QuickChatService,
	hub *Hub,
	presence *PresenceRegistry,
	dispatcher *Dispatcher,
	announcer PresenceAnnouncer,
) *Gateway {
	g := &Gateway{
		identity:      identity,
		conversations: conversations,
		quickchats:    quickchats,
		hub:           hub,
		presence:      presence,
		dispatcher:    dispatcher,
		announcer:     announcer,
		logger:        NewWebSocketLogger(),
	}

	g.handlers = map[string]eventHandler{
		events.TypeAuthenticate:          {requiresAuth: false, handle: g.handleAuthenticate},
		events.TypePing:                  {requiresAuth: false, handle: g.handlePing},
		events.TypeJoinConversation:      {requiresAuth: true, handle: g.handleJoinConversation},
		events.TypeGetConversation:       {requiresAuth: true, handle: g.handleGetConversation},
		events.TypeSendQuickChat:         {requiresAuth: true, handle: g.handleSendQuickChat},
		events.TypeJoinAllConversations:  {requiresAuth: true, handle: g.handleJoinAllConversations},
		events.TypeGetAvailableQuickChat: {requiresAuth: true, handle: g.handleGetAvailableQuickChats},
	}

	return g
}

// Connect registers the freshly upgraded connection and runs the optimistic
// handshake: if a credential came along it is resolved, and on success the
// connection enters the authenticated state immediately. A bad or missing
// credential is not an error; the connection simply stays unauthenticated
// and may authenticate explicitly later.
func (g *Gateway) Connect(c *Client, token string) {
	g.hub.Register(c)

	welcome := events.WelcomeData{}
	if token != "" {
		ident, err := g.identity.Resolve(context.Background(), token)
		if err == nil {
			g.finishAuthentication(context.Background(), c, ident)
			welcome.Authenticated = true
			welcome.UserID = ident.UserID
		} else {
			// Silent by design: the connection is accepted unauthenticated.
			g.logger.Info("handshake authentication failed", "", c.clientID, zap.String("reason", err.Error()))
		}
	}

	c.SendEnvelope(events.New(events.TypeWelcome, welcome))
	g.logger.Info("client connected", welcome.UserID, c.clientID)
}

// Disconnect tears the connection down: the presence entry is removed if it
// still points at this connection, and room membership is unwound by the hub.
func (g *Gateway) Disconnect(c *Client) {
	if ident, ok := c.Identity(); ok {
		if g.presence.Deregister(ident.UserID, c) && g.announcer != nil {
			g.announcer.Offline(context.Background(), ident.UserID)
		}
	}
	g.hub.Unregister(c)
	g.logger.Info("client disconnected", "", c.clientID)
}

// HandleMessage routes one inbound frame. Non-JSON frames and frames without
// a type are answered with a pong echo; typed events go through the dispatch
// table.
func (g *Gateway) HandleMessage(c *Client, raw []byte) {
	ctx := context.Background()

	var ev events.ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Type == "" {
		c.SendEnvelope(events.New(events.TypePong, events.PongData{Echo: string(raw)}))
		return
	}

	if !c.limiter.Allow(ev.Type) {
		g.logger.Warn("rate limit exceeded", c.UserID(), c.clientID, zap.String("event_type", ev.Type))
		return
	}

	h, ok := g.handlers[ev.Type]
	if !ok {
		g.logger.Warn("unknown event type", c.UserID(), c.clientID, zap.String("event_type", ev.Type))
		return
	}

	if h.requiresAuth && !c.Authenticated() {
		c.SendEnvelope(events.Error(clientErrorMessage(chaterrors.ErrAuthRequired)))
		return
	}

	payload := []byte(ev.Data)
	if len(payload) == 0 {
		// Direct form: payload fields inline at the root of the frame.
		payload = raw
	}
	h.handle(ctx, c, payload)
}

func (g *Gateway) handleAuthenticate(ctx context.Context, c *Client, payload json.RawMessage) {
	var req events.AuthenticatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendEnvelope(events.Error("invalid payload"))
		return
	}

	ident, err := g.identity.Resolve(ctx, req.Token)
	if err != nil {
		// Unlike the handshake, explicit authentication failures are
		// reported; the connection stays open and unauthenticated.
		c.SendEnvelope(events.Error(clientErrorMessage(err)))
		return
	}

	g.finishAuthentication(ctx, c, ident)
	c.SendEnvelope(events.New(events.TypeAuthenticated, events.AuthenticatedData{
		UserID: ident.UserID,
		Role:   ident.Role,
	}))
}

// finishAuthentication applies the side effects of entering the
// authenticated state: identity on the connection, presence entry, personal
// room subscription. Re-running it for an already authenticated connection
// just refreshes the presence pointer.
func (g *Gateway) finishAuthentication(ctx context.Context, c *Client, ident services.Identity) {
	c.SetIdentity(ident)
	g.presence.Register(ident.UserID, c)
	g.hub.Subscribe(c, events.UserRoom(ident.UserID))
	if g.announcer != nil {
		g.announcer.Online(ctx, ident.UserID, c.clientID)
	}
	g.logger.Info("client authenticated", ident.UserID, c.clientID, zap.String("role", string(ident.Role)))
}

func (g *Gateway) handleJoinConversation(ctx context.Context, c *Client, payload json.RawMessage) {
	conv, ok := g.resolveFromPayload(ctx, c, payload)
	if !ok {
		return
	}

	g.hub.Subscribe(c, events.ConversationRoom(conv.ID.Hex()))
	c.SendEnvelope(events.New(events.TypeJoinedConversation, events.JoinedConversationData{
		ConversationID: conv.ID.Hex(),
	}))
	c.SendEnvelope(events.New(events.TypeConversationHistory, events.ConversationHistoryData{
		Conversation: conv,
		Messages:     conv.Messages,
	}))
}

func (g *Gateway) handleGetConversation(ctx context.Context, c *Client, payload json.RawMessage) {
	conv, ok := g.resolveFromPayload(ctx, c, payload)
	if !ok {
		return
	}

	c.SendEnvelope(events.New(events.TypeConversationHistory, events.ConversationHistoryData{
		Conversation: conv,
		Messages:     conv.Messages,
	}))
}

func (g *Gateway) handleSendQuickChat(ctx context.Context, c *Client, payload json.RawMessage) {
	ident, ok := c.Identity()
	if !ok {
		c.SendEnvelope(events.Error(clientErrorMessage(chaterrors.ErrAuthRequired)))
		return
	}

	var req events.SendQuickChatPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendEnvelope(events.Error("invalid payload"))
		return
	}
	ref, err := events.ParentRefPayload{RequestID: req.RequestID, BundleID: req.BundleID}.ParentRef()
	if err != nil {
		c.SendEnvelope(events.Error(clientErrorMessage(err)))
		return
	}

	delivery, err := g.quickchats.SendQuickMessage(ctx, ident, ref, req.QuickChatID)
	if err != nil {
		c.SendEnvelope(events.Error(clientErrorMessage(err)))
		return
	}

	convID := delivery.Conversation.ID.Hex()
	g.dispatcher.BroadcastToConversation(convID, events.New(events.TypeNewMessage, events.NewMessageData{
		ConversationID: convID,
		Message:        delivery.Message,
		Sender:         ident.UserID,
	}))

	if other := delivery.Conversation.OtherParty(ident.UserID); other != "" {
		g.dispatcher.NotifyParty(other, events.New(events.TypeConversationUpdated, events.ConversationUpdatedData{
			ConversationID: convID,
			LastMessage:    delivery.Message.Content,
			LastMessageAt:  delivery.Message.CreatedAt,
		}))
	}

	c.SendEnvelope(events.New(events.TypeMessageSent, events.MessageSentData{
		ConversationID: convID,
		MessageID:      delivery.Message.ID.Hex(),
	}))
}

func (g *Gateway) handleJoinAllConversations(ctx context.Context, c *Client, payload json.RawMessage) {
	ident, ok := c.Identity()
	if !ok {
		c.SendEnvelope(events.Error(clientErrorMessage(chaterrors.ErrAuthRequired)))
		return
	}

	convs, err := g.conversations.ListForUser(ctx, ident.UserID)
	if err != nil {
		c.SendEnvelope(events.Error(clientErrorMessage(err)))
		return
	}

	for _, conv := range convs {
		g.hub.Subscribe(c, events.ConversationRoom(conv.ID.Hex()))
		c.SendEnvelope(events.New(events.TypeJoinedConversation, events.JoinedConversationData{
			ConversationID: conv.ID.Hex(),
		}))
	}
}

func (g *Gateway) handleGetAvailableQuickChats(ctx context.Context, c *Client, payload json.RawMessage) {
	ident, ok := c.Identity()
	if !ok {
		c.SendEnvelope(events.Error(clientErrorMessage(chaterrors.ErrAuthRequired)))
		return
	}

	templates, err := g.quickchats.ListTemplates(ctx, ident)
	if err != nil {
		c.SendEnvelope(events.Error("quick chats unavailable"))
		return
	}

	c.SendEnvelope(events.New(events.TypeAvailableQuickChats, events.AvailableQuickChatsData{
		QuickChats: templates,
	}))
}

func (g *Gateway) handlePing(ctx context.Context, c *Client, payload json.RawMessage) {
	var req events.PingPayload
	_ = json.Unmarshal(payload, &req)
	c.SendEnvelope(events.New(events.TypePong, events.PongData{Echo: req.Echo}))
}

// resolveFromPayload parses a parent reference payload and resolves its
// conversation, emitting the error envelope itself on failure.
func (g *Gateway) resolveFromPayload(ctx context.Context, c *Client, payload json.RawMessage) (conv domain.Conversation, ok bool) {
	ident, authed := c.Identity()
	if !authed {
		c.SendEnvelope(events.Error(clientErrorMessage(chaterrors.ErrAuthRequired)))
		return conv, false
	}

	var req events.ParentRefPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendEnvelope(events.Error("invalid payload"))
		return conv, false
	}
	ref, err := req.ParentRef()
	if err != nil {
		c.SendEnvelope(events.Error(clientErrorMessage(err)))
		return conv, false
	}

	conv, err = g.conversations.ResolveOrCreate(ctx, ident, ref)
	if err != nil {
		c.SendEnvelope(events.Error(clientErrorMessage(err)))
		return conv, false
	}
	return conv, true
}

// clientErrorMessage converts a pipeline error into the message carried by
// the error envelope. All errors surface this way; none close the
// connection.
func clientErrorMessage(err error) string {
	switch {
	case errors.Is(err, chaterrors.ErrAuthRequired):
		return "authentication required"
	case errors.Is(err, chaterrors.ErrInvalidCredential):
		return "invalid credential"
	case errors.Is(err, chaterrors.ErrUnknownSubject):
		return "no account found for credential"
	case errors.Is(err, chaterrors.ErrInvalidReference):
		return "exactly one of requestId or bundleId is required"
	case errors.Is(err, chaterrors.ErrNotFound):
		return "not found"
	case errors.Is(err, chaterrors.ErrAccessDenied):
		return "access denied"
	case errors.Is(err, chaterrors.ErrTemplateNotFound):
		return "quick chat template not found"
	case errors.Is(err, chaterrors.ErrConversationUnavailable):
		return "conversation temporarily unavailable"
	default:
		return "internal error"
	}
}
