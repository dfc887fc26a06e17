package mongodb

import (
	"context"
	"errors"
	"strings"

	"docbase/internal/auth/domain/model"
	apperrors "docbase/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements the UserRepository interface using MongoDB.
// Users live in the reserved "users" collection of the data database; the
// generic collection routes refuse to touch it.
type MongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository creates a new MongoDB user repository
func NewMongoUserRepository(db *mongo.Database) (*MongoUserRepository, error) {
	repo := &MongoUserRepository{
		users: db.Collection("users"),
	}

	usernameIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.users.Indexes().CreateOne(context.Background(), usernameIndex); err != nil {
		return nil, err
	}

	return repo, nil
}

// CreateUser inserts a new identity record
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	doc := bson.M{
		"username":  strings.ToLower(user.Username),
		"password":  user.Password,
		"role":      user.Role,
		"createdAt": user.CreatedAt,
	}
	if user.Email != "" {
		doc["email"] = strings.ToLower(user.Email)
	}

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewAuthorizationError("the username has been taken").WithCause(err)
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.UID = oid.Hex()
	}
	return nil
}

// GetUserByUsername loads a user by its case-folded username
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": strings.ToLower(username)})
}

// GetUserByUsernameAndEmail loads a user matching both username and email
func (r *MongoUserRepository) GetUserByUsernameAndEmail(ctx context.Context, username, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{
		"username": strings.ToLower(username),
		"email":    strings.ToLower(email),
	})
}

// UpdatePassword replaces the stored bcrypt hash for a user
func (r *MongoUserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"username": strings.ToLower(username)},
		bson.M{"$set": bson.M{"password": passwordHash}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var raw struct {
		ID         primitive.ObjectID `bson:"_id"`
		model.User `bson:",inline"`
	}
	err := r.users.FindOne(ctx, filter).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	user := raw.User
	user.UID = raw.ID.Hex()
	return &user, nil
}
