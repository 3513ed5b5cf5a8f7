package services

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"servihub-chat/internal/domain"
	chaterrors "servihub-chat/pkg/errors"
)

type fakeCustomerStore struct {
	customers map[string]domain.Customer
	err       error
}

func (s *fakeCustomerStore) GetByID(_ context.Context, id string) (domain.Customer, error) {
	if s.err != nil {
		return domain.Customer{}, s.err
	}
	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, chaterrors.ErrNotFound
	}
	return c, nil
}

type fakeProviderStore struct {
	providers map[string]domain.Provider
	err       error
}

func (s *fakeProviderStore) GetByID(_ context.Context, id string) (domain.Provider, error) {
	if s.err != nil {
		return domain.Provider{}, s.err
	}
	p, ok := s.providers[id]
	if !ok {
		return domain.Provider{}, chaterrors.ErrNotFound
	}
	return p, nil
}

type fakeRequestStore struct {
	requests map[string]domain.ServiceRequest
}

func (s *fakeRequestStore) GetByID(_ context.Context, id string) (domain.ServiceRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return domain.ServiceRequest{}, chaterrors.ErrNotFound
	}
	return r, nil
}

type fakeBundleStore struct {
	bundles map[string]domain.Bundle
}

func (s *fakeBundleStore) GetByID(_ context.Context, id string) (domain.Bundle, error) {
	b, ok := s.bundles[id]
	if !ok {
		return domain.Bundle{}, chaterrors.ErrNotFound
	}
	return b, nil
}

// fakeConversationRepo mimics the unique-index semantics of the real store:
// one conversation per parent reference, with an optional forced conflict on
// Create to exercise the lost-race path.
type fakeConversationRepo struct {
	mu            sync.Mutex
	byParent      map[string]domain.Conversation
	createCalls   int
	appendCalls   int
	conflictOnce  bool
	createErr     error
	appendErr     error
	findErr       error
	appendedMsgs  []domain.Message
	appendedConvs []primitive.ObjectID
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byParent: make(map[string]domain.Conversation)}
}

func (r *fakeConversationRepo) FindByParent(_ context.Context, ref domain.ParentRef) (domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return domain.Conversation{}, r.findErr
	}
	conv, ok := r.byParent[ref.String()]
	if !ok {
		return domain.Conversation{}, chaterrors.ErrNotFound
	}
	return conv, nil
}

func (r *fakeConversationRepo) Create(_ context.Context, c *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	key := domain.ParentRef{Kind: c.ParentKind, ID: c.ParentID}.String()
	if r.conflictOnce {
		// Simulate a concurrent first-joiner winning the insert.
		r.conflictOnce = false
		winner := *c
		winner.ID = primitive.NewObjectID()
		winner.CustomerID = c.CustomerID
		r.byParent[key] = winner
		return chaterrors.ErrAlreadyExists
	}
	if _, exists := r.byParent[key]; exists {
		return chaterrors.ErrAlreadyExists
	}
	c.ID = primitive.NewObjectID()
	r.byParent[key] = *c
	return nil
}

func (r *fakeConversationRepo) AppendMessage(_ context.Context, conversationID primitive.ObjectID, m domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendCalls++
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appendedConvs = append(r.appendedConvs, conversationID)
	r.appendedMsgs = append(r.appendedMsgs, m)
	return nil
}

func (r *fakeConversationRepo) ListForUser(_ context.Context, userID string) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Conversation
	for _, conv := range r.byParent {
		if conv.CustomerID == userID || conv.ProviderID == userID {
			out = append(out, conv)
		}
	}
	return out, nil
}

type fakeQuickChatRepo struct {
	templates      map[primitive.ObjectID]domain.QuickChatTemplate
	incrementErr   error
	incrementCalls int
	lastIncrement  primitive.ObjectID
}

func newFakeQuickChatRepo() *fakeQuickChatRepo {
	return &fakeQuickChatRepo{templates: make(map[primitive.ObjectID]domain.QuickChatTemplate)}
}

func (r *fakeQuickChatRepo) GetForOwner(_ context.Context, id primitive.ObjectID, ownerID string, role domain.Role) (domain.QuickChatTemplate, error) {
	tpl, ok := r.templates[id]
	if !ok || tpl.OwnerID != ownerID || tpl.OwnerRole != role || !tpl.IsActive {
		return domain.QuickChatTemplate{}, chaterrors.ErrTemplateNotFound
	}
	return tpl, nil
}

func (r *fakeQuickChatRepo) ListForOwner(_ context.Context, ownerID string, role domain.Role) ([]domain.QuickChatTemplate, error) {
	var out []domain.QuickChatTemplate
	for _, tpl := range r.templates {
		if tpl.OwnerID == ownerID && tpl.OwnerRole == role && tpl.IsActive {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (r *fakeQuickChatRepo) IncrementUsage(_ context.Context, id primitive.ObjectID) error {
	r.incrementCalls++
	r.lastIncrement = id
	return r.incrementErr
}
