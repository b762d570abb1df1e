package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veriphone/verify-api/internal/core/domain"
)

const securityEventCollection = "security_events"

type MongoSecurityEventRepository struct {
	coll *mongo.Collection
}

func NewSecurityEventRepository(db *mongo.Database) *MongoSecurityEventRepository {
	return &MongoSecurityEventRepository{coll: db.Collection(securityEventCollection)}
}

type mongoSecurityEvent struct {
	UserID    string `bson:"user_id,omitempty"`
	Type      string `bson:"type"`
	IP        string `bson:"ip,omitempty"`
	Detail    string `bson:"detail,omitempty"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *MongoSecurityEventRepository) Insert(ctx context.Context, event *domain.SecurityEvent) error {
	doc := mongoSecurityEvent{
		UserID:    event.UserID,
		Type:      event.Type,
		IP:        event.IP,
		Detail:    event.Detail,
		CreatedAt: event.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}
