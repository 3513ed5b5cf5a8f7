package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuickChatTemplate is a user-owned canned phrase. Ownership is the pair
// (owner id, owner role); an id alone never identifies a usable template.
// The messaging core only ever mutates UsageCount.
type QuickChatTemplate struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID    string             `bson:"owner_id" json:"ownerId"`
	OwnerRole  Role               `bson:"owner_role" json:"ownerRole"`
	Content    string             `bson:"content" json:"content"`
	UsageCount int64              `bson:"usage_count" json:"usageCount"`
	IsActive   bool               `bson:"is_active" json:"isActive"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}
