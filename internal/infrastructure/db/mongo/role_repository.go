package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veriphone/verify-api/internal/core/domain"
)

const roleCollection = "roles"

type MongoRoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *MongoRoleRepository {
	return &MongoRoleRepository{coll: db.Collection(roleCollection)}
}

type mongoRole struct {
	Name        string   `bson:"name"`
	Category    string   `bson:"category"`
	Description string   `bson:"description"`
	Permissions []string `bson:"permissions"`
	CreatedAt   int64    `bson:"created_at"`
	UpdatedAt   int64    `bson:"updated_at"`
}

func (r *MongoRoleRepository) FindAll(ctx context.Context) ([]domain.Role, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	defer cursor.Close(ctx)

	var roles []domain.Role
	for cursor.Next(ctx) {
		var mr mongoRole
		if err := cursor.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		roles = append(roles, mr.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

func (r *MongoRoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var mr mongoRole
	if err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&mr); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	role := mr.toDomain()
	return &role, nil
}

// Seed inserts any missing roles, keyed by name. $setOnInsert leaves existing
// documents untouched, so permission sets edited through the admin endpoints
// survive restarts.
func (r *MongoRoleRepository) Seed(ctx context.Context, roles []domain.Role) error {
	now := time.Now().Unix()
	for _, role := range roles {
		doc := mongoRole{
			Name:        role.Name,
			Category:    role.Category,
			Description: role.Description,
			Permissions: role.Permissions,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"name": role.Name},
			bson.M{"$setOnInsert": doc},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
	}
	return nil
}

func (r *MongoRoleRepository) UpdatePermissions(ctx context.Context, name string, permissions []string) (*domain.Role, error) {
	var mr mongoRole
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{"permissions": permissions, "updated_at": time.Now().Unix()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mr)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update role permissions: %w", err)
	}
	role := mr.toDomain()
	return &role, nil
}

func (mr mongoRole) toDomain() domain.Role {
	return domain.Role{
		Name:        mr.Name,
		Category:    mr.Category,
		Description: mr.Description,
		Permissions: mr.Permissions,
		CreatedAt:   unixToTime(mr.CreatedAt),
		UpdatedAt:   unixToTime(mr.UpdatedAt),
	}
}
