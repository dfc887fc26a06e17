package mongodb

import (
	"context"
	"errors"

	"docbase/internal/collection/domain/model"
	"docbase/internal/collection/query"
	"docbase/internal/collection/registry"
	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentRepository executes translated queries against the data database.
// All collection handles go through the registry so a collection is bound
// exactly once per name.
type DocumentRepository struct {
	registry *registry.Registry
	db       *mongo.Database
	log      logger.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(reg *registry.Registry, db *mongo.Database, log logger.Logger) *DocumentRepository {
	return &DocumentRepository{
		registry: reg,
		db:       db,
		log:      log.WithComponent("documents"),
	}
}

// Insert writes the already-stamped documents and returns their presentable
// form.
func (r *DocumentRepository) Insert(ctx context.Context, collection string, docs []model.Document) ([]model.Document, error) {
	coll := r.registry.Model(collection).Collection()

	payload := make([]interface{}, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}

	res, err := coll.InsertMany(ctx, payload)
	if err != nil {
		return nil, err
	}
	for i, id := range res.InsertedIDs {
		docs[i][model.FieldID] = id
		docs[i].Presentable()
	}
	return docs, nil
}

// FindOne loads a single document by its identifier, applying field
// exclusion and population.
func (r *DocumentRepository) FindOne(ctx context.Context, collection, id string, exclude []string, populate []query.Populate) (model.Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	coll := r.registry.Model(collection).Collection()
	opts := options.FindOne().SetProjection(query.ExcludeProjection(exclude))

	var doc model.Document
	if err := coll.FindOne(ctx, bson.M{model.FieldID: oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	if err := r.resolvePopulate(ctx, []model.Document{doc}, populate); err != nil {
		return nil, err
	}
	return doc.Presentable(), nil
}

// Find loads a page of documents in natural order.
func (r *DocumentRepository) Find(ctx context.Context, collection string, listOpts *query.ListOptions) ([]model.Document, error) {
	coll := r.registry.Model(collection).Collection()

	findOpts := options.Find().
		SetProjection(query.ExcludeProjection(listOpts.Exclude)).
		SetSort(bson.D{{Key: "$natural", Value: listOpts.SortOrder}}).
		SetSkip(listOpts.Skip()).
		SetLimit(listOpts.PageSize)

	cursor, err := coll.Find(ctx, listOpts.Where, findOpts)
	if err != nil {
		return nil, err
	}

	docs := []model.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	if err := r.resolvePopulate(ctx, docs, listOpts.Populate); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		doc.Presentable()
	}
	return docs, nil
}

// UpdateOne applies a pipeline-style {$set, $unset} update to one document.
func (r *DocumentRepository) UpdateOne(ctx context.Context, collection, id string, set bson.M, unset []string) (*model.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}
	return r.update(ctx, collection, bson.M{model.FieldID: oid}, set, unset, false)
}

// UpdateMany applies a pipeline-style {$set, $unset} update to every
// matching document.
func (r *DocumentRepository) UpdateMany(ctx context.Context, collection string, where bson.M, set bson.M, unset []string) (*model.UpdateResult, error) {
	if where == nil {
		where = bson.M{}
	}
	return r.update(ctx, collection, where, set, unset, true)
}

func (r *DocumentRepository) update(ctx context.Context, collection string, filter bson.M, set bson.M, unset []string, many bool) (*model.UpdateResult, error) {
	coll := r.registry.Model(collection).Collection()

	pipeline := mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}
	if len(unset) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$unset", Value: unset}})
	}

	var res *mongo.UpdateResult
	var err error
	if many {
		res, err = coll.UpdateMany(ctx, filter, pipeline)
	} else {
		res, err = coll.UpdateOne(ctx, filter, pipeline)
	}
	if err != nil {
		return nil, err
	}
	return &model.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

// DeleteOne removes a document by its identifier.
func (r *DocumentRepository) DeleteOne(ctx context.Context, collection, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}
	coll := r.registry.Model(collection).Collection()
	_, err = coll.DeleteOne(ctx, bson.M{model.FieldID: oid})
	return err
}

// DeleteMany removes every matching document. An empty filter removes all.
func (r *DocumentRepository) DeleteMany(ctx context.Context, collection string, where bson.M) error {
	if where == nil {
		where = bson.M{}
	}
	coll := r.registry.Model(collection).Collection()
	_, err := coll.DeleteMany(ctx, where)
	return err
}

// Count returns the number of matching documents.
func (r *DocumentRepository) Count(ctx context.Context, collection string, where bson.M) (int64, error) {
	coll := r.registry.Model(collection).Collection()
	return coll.CountDocuments(ctx, where)
}

// Distinct returns the distinct values of field among matching documents.
func (r *DocumentRepository) Distinct(ctx context.Context, collection, field string, where bson.M) ([]interface{}, error) {
	coll := r.registry.Model(collection).Collection()
	values, err := coll.Distinct(ctx, field, where)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []interface{}{}
	}
	return values, nil
}

// Sum aggregates the numeric total of field across matching documents. The
// caller is responsible for decimal rounding.
func (r *DocumentRepository) Sum(ctx context.Context, collection, field string, where bson.M) (float64, error) {
	coll := r.registry.Model(collection).Collection()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: where}},
		bson.D{{Key: "$group", Value: bson.M{
			model.FieldID: nil,
			"amount":      bson.M{"$sum": "$" + field},
		}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return toFloat(results[0]["amount"]), nil
}

// Sample returns up to size uniformly sampled matching documents.
func (r *DocumentRepository) Sample(ctx context.Context, collection string, where bson.M, size int64, exclude []string) ([]model.Document, error) {
	coll := r.registry.Model(collection).Collection()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: where}},
		bson.D{{Key: "$sample", Value: bson.M{"size": size}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	docs := []model.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	// $sample has no projection stage here; strip excluded fields after the
	// fact, the same way the list path hides them.
	for _, doc := range docs {
		doc.Presentable()
		for _, field := range exclude {
			delete(doc, field)
		}
	}
	return docs, nil
}

// GetOwner reads only the createdBy field of a document; the ownership guard
// does not need the rest.
func (r *DocumentRepository) GetOwner(ctx context.Context, collection, id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", apperrors.ErrNotFound
	}

	coll := r.registry.Model(collection).Collection()
	opts := options.FindOne().SetProjection(bson.M{model.FieldCreatedBy: 1})

	var doc model.Document
	if err := coll.FindOne(ctx, bson.M{model.FieldID: oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return doc.CreatedBy(), nil
}

// ListCollectionNames lists all collection names of the data database.
func (r *DocumentRepository) ListCollectionNames(ctx context.Context) ([]string, error) {
	names, err := r.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// resolvePopulate expands reference fields in place. The target collection
// is provisioned through the registry; a reference that does not resolve
// populates to null.
func (r *DocumentRepository) resolvePopulate(ctx context.Context, docs []model.Document, populate []query.Populate) error {
	for _, p := range populate {
		if err := r.populateOne(ctx, docs, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepository) populateOne(ctx context.Context, docs []model.Document, p query.Populate) error {
	refs := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		if oid, ok := refID(doc[p.Field]); ok {
			refs = append(refs, oid)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	coll := r.registry.Model(p.Collection).Collection()
	opts := options.Find().SetProjection(populateProjection(p))

	cursor, err := coll.Find(ctx, bson.M{model.FieldID: bson.M{"$in": refs}}, opts)
	if err != nil {
		return err
	}
	var expanded []model.Document
	if err := cursor.All(ctx, &expanded); err != nil {
		return err
	}

	byID := make(map[string]model.Document, len(expanded))
	for _, sub := range expanded {
		if oid, ok := sub[model.FieldID].(primitive.ObjectID); ok {
			byID[oid.Hex()] = sub.Presentable()
		}
	}

	for _, doc := range docs {
		oid, ok := refID(doc[p.Field])
		if !ok {
			continue
		}
		if sub, found := byID[oid.Hex()]; found {
			doc[p.Field] = sub
		} else {
			doc[p.Field] = nil
		}
	}
	return nil
}

// populateProjection builds the projection for an expanded sub-document. A
// populate into the reserved users collection must never expose the password
// hash or the version marker.
func populateProjection(p query.Populate) bson.M {
	if len(p.Select) > 0 {
		projection := bson.M{}
		for _, field := range p.Select {
			if p.Collection == "users" && field == model.FieldPassword {
				continue
			}
			projection[field] = 1
		}
		// An empty inclusion projection means "all fields" to the driver, so a
		// select list reduced to nothing must fall through to the exclusions.
		if len(projection) > 0 {
			return projection
		}
	}

	projection := bson.M{model.FieldVersion: 0}
	if p.Collection == "users" {
		projection[model.FieldPassword] = 0
	}
	return projection
}

func refID(val interface{}) (primitive.ObjectID, bool) {
	switch v := val.(type) {
	case primitive.ObjectID:
		return v, true
	case string:
		oid, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return primitive.NilObjectID, false
		}
		return oid, true
	default:
		return primitive.NilObjectID, false
	}
}

func toFloat(val interface{}) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
