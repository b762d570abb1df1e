package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veriphone/verify-api/internal/core/domain"
)

const userCollection = "users"

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

type mongoUser struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Fullname               string             `bson:"fullname"`
	Email                  string             `bson:"email"`
	PasswordHash           string             `bson:"password_hash"`
	Role                   string             `bson:"role"`
	IsEmailVerified        bool               `bson:"is_email_verified"`
	TenantID               string             `bson:"tenant_id,omitempty"`
	RefreshToken           string             `bson:"refresh_token,omitempty"`
	EmailVerificationToken string             `bson:"email_verification_token,omitempty"`
	ResetPasswordToken     string             `bson:"reset_password_token,omitempty"`
	ResetPasswordExpires   int64              `bson:"reset_password_expires,omitempty"`
	CreatedAt              int64              `bson:"created_at"`
	UpdatedAt              int64              `bson:"updated_at"`
}

// EnsureIndexes creates the unique email index. Emails are stored lowercased,
// which makes the unique index case-insensitive in effect.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := mongoUser{
		Fullname:               user.Fullname,
		Email:                  user.Email,
		PasswordHash:           user.PasswordHash,
		Role:                   user.Role,
		TenantID:               user.TenantID,
		EmailVerificationToken: user.EmailVerificationToken,
		CreatedAt:              user.CreatedAt.Unix(),
		UpdatedAt:              user.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{"refresh_token": token, "updated_at": time.Now().Unix()},
	})
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken is the reuse-detection point: the update matches only
// while the stored value still equals old, so concurrent rotations resolve to
// exactly one winner and every loser sees ErrTokenReused.
func (r *MongoUserRepository) RotateRefreshToken(ctx context.Context, userID, old, next string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrTokenReused
	}
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "refresh_token": old},
		bson.M{"$set": bson.M{"refresh_token": next, "updated_at": time.Now().Unix()}},
	).Err()
	if err == mongo.ErrNoDocuments {
		return domain.ErrTokenReused
	}
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil // unknown id: nothing to clear, logout stays idempotent
	}
	if _, err := r.coll.UpdateByID(ctx, oid, bson.M{
		"$unset": bson.M{"refresh_token": ""},
		"$set":   bson.M{"updated_at": time.Now().Unix()},
	}); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) SetResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"reset_password_token":   token,
			"reset_password_expires": expires.Unix(),
			"updated_at":             time.Now().Unix(),
		},
	})
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ResetPassword consumes a live reset token: it swaps the hash, drops the
// reset fields, and revokes any stored refresh token in one update.
func (r *MongoUserRepository) ResetPassword(ctx context.Context, token, passwordHash string) error {
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{
			"reset_password_token":   token,
			"reset_password_expires": bson.M{"$gt": time.Now().Unix()},
		},
		bson.M{
			"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now().Unix()},
			"$unset": bson.M{"reset_password_token": "", "reset_password_expires": "", "refresh_token": ""},
		},
	).Err()
	if err == mongo.ErrNoDocuments {
		return domain.ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) VerifyEmail(ctx context.Context, token string) error {
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"email_verification_token": token},
		bson.M{
			"$set":   bson.M{"is_email_verified": true, "updated_at": time.Now().Unix()},
			"$unset": bson.M{"email_verification_token": ""},
		},
	).Err()
	if err == mongo.ErrNoDocuments {
		return domain.ErrVerifyTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	return nil
}

func (mu mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                     mu.ID.Hex(),
		Fullname:               mu.Fullname,
		Email:                  mu.Email,
		PasswordHash:           mu.PasswordHash,
		Role:                   mu.Role,
		IsEmailVerified:        mu.IsEmailVerified,
		TenantID:               mu.TenantID,
		RefreshToken:           mu.RefreshToken,
		EmailVerificationToken: mu.EmailVerificationToken,
		ResetPasswordToken:     mu.ResetPasswordToken,
		ResetPasswordExpires:   unixToTime(mu.ResetPasswordExpires),
		CreatedAt:              unixToTime(mu.CreatedAt),
		UpdatedAt:              unixToTime(mu.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
