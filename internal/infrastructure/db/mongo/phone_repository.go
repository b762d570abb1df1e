package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veriphone/verify-api/internal/core/domain"
)

const validationCollection = "phone_validations"

type MongoPhoneValidationRepository struct {
	coll *mongo.Collection
}

func NewPhoneValidationRepository(db *mongo.Database) *MongoPhoneValidationRepository {
	return &MongoPhoneValidationRepository{coll: db.Collection(validationCollection)}
}

type mongoValidation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     string             `bson:"user_id"`
	TenantID   string             `bson:"tenant_id,omitempty"`
	RawInput   string             `bson:"raw_input"`
	E164       string             `bson:"e164,omitempty"`
	Country    string             `bson:"country,omitempty"`
	NumberType string             `bson:"number_type,omitempty"`
	Valid      bool               `bson:"valid"`
	CreatedAt  int64              `bson:"created_at"`
}

func (r *MongoPhoneValidationRepository) Insert(ctx context.Context, v *domain.PhoneValidation) (*domain.PhoneValidation, error) {
	doc := mongoValidation{
		UserID:     v.UserID,
		TenantID:   v.TenantID,
		RawInput:   v.RawInput,
		E164:       v.E164,
		Country:    v.Country,
		NumberType: v.NumberType,
		Valid:      v.Valid,
		CreatedAt:  v.CreatedAt.Unix(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert validation: %w", err)
	}
	created := *v
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MongoPhoneValidationRepository) FindByUser(ctx context.Context, userID string, limit int64) ([]domain.PhoneValidation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find validations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.PhoneValidation
	for cursor.Next(ctx) {
		var mv mongoValidation
		if err := cursor.Decode(&mv); err != nil {
			return nil, fmt.Errorf("decode validation: %w", err)
		}
		out = append(out, domain.PhoneValidation{
			ID:         mv.ID.Hex(),
			UserID:     mv.UserID,
			TenantID:   mv.TenantID,
			RawInput:   mv.RawInput,
			E164:       mv.E164,
			Country:    mv.Country,
			NumberType: mv.NumberType,
			Valid:      mv.Valid,
			CreatedAt:  unixToTime(mv.CreatedAt),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate validations: %w", err)
	}
	return out, nil
}
