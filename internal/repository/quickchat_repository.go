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

const quickChatCollection = "quick_chat_templates"

type MongoQuickChatRepository struct {
	col    *mongo.Collection
	logger *zap.Logger
}

func NewQuickChatRepository(db *mongo.Database, logger *zap.Logger) *MongoQuickChatRepository {
	return &MongoQuickChatRepository{
		col:    db.Collection(quickChatCollection),
		logger: logger,
	}
}

func (r *MongoQuickChatRepository) GetForOwner(ctx context.Context, id primitive.ObjectID, ownerID string, role domain.Role) (domain.QuickChatTemplate, error) {
	// Owner id and role both have to match: templates are private to their
	// creator and the id space is shared across roles.
	filter := bson.M{
		"_id":        id,
		"owner_id":   ownerID,
		"owner_role": role,
		"is_active":  true,
	}

	var tpl domain.QuickChatTemplate
	err := r.col.FindOne(ctx, filter).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.QuickChatTemplate{}, chaterrors.ErrTemplateNotFound
		}
		r.logger.Error("failed to fetch quick chat template",
			zap.String("template_id", id.Hex()),
			zap.Error(err),
		)
		return domain.QuickChatTemplate{}, err
	}
	return tpl, nil
}

func (r *MongoQuickChatRepository) ListForOwner(ctx context.Context, ownerID string, role domain.Role) ([]domain.QuickChatTemplate, error) {
	filter := bson.M{
		"owner_id":   ownerID,
		"owner_role": role,
		"is_active":  true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "usage_count", Value: -1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var templates []domain.QuickChatTemplate
	if err := cur.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *MongoQuickChatRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return chaterrors.ErrTemplateNotFound
	}
	return nil
}
