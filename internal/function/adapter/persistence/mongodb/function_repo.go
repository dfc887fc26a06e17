package mongodb

import (
	"context"
	"errors"
	"time"

	"docbase/internal/function/domain/model"
	"docbase/internal/function/domain/repository"
	"docbase/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const functionCollection = "cloudFunctions"

// MongoFunctionRepository stores cloud function records in the core
// database, separate from user data.
type MongoFunctionRepository struct {
	collection *mongo.Collection
	log        logger.Logger
}

// NewMongoFunctionRepository creates a new function repository
func NewMongoFunctionRepository(db *mongo.Database, log logger.Logger) *MongoFunctionRepository {
	repo := &MongoFunctionRepository{
		collection: db.Collection(functionCollection),
		log:        log.WithComponent("functions"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		repo.log.Warnf("could not ensure function name index: %v", err)
	}
	return repo
}

// Create stores a new function record. Names are deliberately not unique;
// GetByName resolves to the newest record.
func (r *MongoFunctionRepository) Create(ctx context.Context, fn *model.CloudFunction) error {
	_, err := r.collection.InsertOne(ctx, fn)
	return err
}

// GetByName returns the newest record carrying the name.
func (r *MongoFunctionRepository) GetByName(ctx context.Context, name string) (*model.CloudFunction, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var fn model.CloudFunction
	if err := r.collection.FindOne(ctx, bson.M{"name": name}, opts).Decode(&fn); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrFunctionNotFound
		}
		return nil, err
	}
	return &fn, nil
}

// UpdateCode replaces the source of the newest record with the name.
func (r *MongoFunctionRepository) UpdateCode(ctx context.Context, name, code, uid string, at int64) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"name": name}, bson.M{
		"$set": bson.M{
			"code":      code,
			"updatedAt": at,
			"updatedBy": uid,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrFunctionNotFound
	}
	return nil
}

// Delete removes every record carrying the name.
func (r *MongoFunctionRepository) Delete(ctx context.Context, name string) error {
	res, err := r.collection.DeleteMany(ctx, bson.M{"name": name})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrFunctionNotFound
	}
	return nil
}
