package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"servihub-chat/internal/domain"
	chaterrors "servihub-chat/pkg/errors"
)

const conversationCollection = "conversations"

type MongoConversationRepository struct {
	col    *mongo.Collection
	logger *zap.Logger
}

func NewConversationRepository(db *mongo.Database, logger *zap.Logger) *MongoConversationRepository {
	return &MongoConversationRepository{
		col:    db.Collection(conversationCollection),
		logger: logger,
	}
}

// EnsureIndexes creates the unique index on (parent_kind, parent_id). This
// index, not application logic, is what prevents two concurrent first-joiners
// from creating duplicate conversations.
func (r *MongoConversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "parent_kind", Value: 1}, {Key: "parent_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "provider_id", Value: 1}},
		},
	})
	return err
}

func (r *MongoConversationRepository) FindByParent(ctx context.Context, ref domain.ParentRef) (domain.Conversation, error) {
	filter := bson.M{"parent_kind": ref.Kind, "parent_id": ref.ID}

	var conv domain.Conversation
	err := r.col.FindOne(ctx, filter).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Conversation{}, chaterrors.ErrNotFound
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("parent_ref", ref.String()),
			zap.Error(err),
		)
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *MongoConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Messages == nil {
		c.Messages = []domain.Message{}
	}

	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return chaterrors.ErrAlreadyExists
		}
		r.logger.Error("failed to create conversation",
			zap.String("parent_ref", c.ParentRef().String()),
			zap.Error(err),
		)
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

func (r *MongoConversationRepository) AppendMessage(ctx context.Context, conversationID primitive.ObjectID, m domain.Message) error {
	update := bson.M{
		"$push": bson.M{"messages": m},
		"$set": bson.M{
			"last_message":    m.Content,
			"last_message_at": m.CreatedAt,
			"updated_at":      m.CreatedAt,
		},
	}
	res, err := r.col.UpdateByID(ctx, conversationID, update)
	if err != nil {
		r.logger.Error("failed to append message",
			zap.String("conversation_id", conversationID.Hex()),
			zap.Error(err),
		)
		return err
	}
	if res.MatchedCount == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

func (r *MongoConversationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"customer_id": userID},
		bson.M{"provider_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var conversations []domain.Conversation
	if err := cur.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}
