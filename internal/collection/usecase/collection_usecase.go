package usecase

import (
	"context"
	"time"

	"docbase/internal/auth/domain/repository"
	"docbase/internal/collection/domain/model"
	"docbase/internal/collection/query"
	"docbase/internal/shared/logger"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
)

// DocumentStore is the persistence port of the collection module.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, docs []model.Document) ([]model.Document, error)
	FindOne(ctx context.Context, collection, id string, exclude []string, populate []query.Populate) (model.Document, error)
	Find(ctx context.Context, collection string, opts *query.ListOptions) ([]model.Document, error)
	UpdateOne(ctx context.Context, collection, id string, set bson.M, unset []string) (*model.UpdateResult, error)
	UpdateMany(ctx context.Context, collection string, where bson.M, set bson.M, unset []string) (*model.UpdateResult, error)
	DeleteOne(ctx context.Context, collection, id string) error
	DeleteMany(ctx context.Context, collection string, where bson.M) error
	Count(ctx context.Context, collection string, where bson.M) (int64, error)
	Distinct(ctx context.Context, collection, field string, where bson.M) ([]interface{}, error)
	Sum(ctx context.Context, collection, field string, where bson.M) (float64, error)
	Sample(ctx context.Context, collection string, where bson.M, size int64, exclude []string) ([]model.Document, error)
	GetOwner(ctx context.Context, collection, id string) (string, error)
	ListCollectionNames(ctx context.Context) ([]string, error)
}

// CollectionUsecaseInterface is what the HTTP adapter depends on.
type CollectionUsecaseInterface interface {
	Create(ctx context.Context, collection string, docs []model.Document, claims *repository.Claims) ([]model.Document, error)
	Get(ctx context.Context, collection, id string, exclude []string, populate []query.Populate) (model.Document, error)
	List(ctx context.Context, collection string, opts *query.ListOptions) ([]model.Document, error)
	Update(ctx context.Context, collection, id string, set model.Document, unset []string, claims *repository.Claims) (*model.UpdateResult, error)
	UpdateMany(ctx context.Context, collection string, where bson.M, set model.Document, unset []string, claims *repository.Claims) (*model.UpdateResult, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteMany(ctx context.Context, collection string, where bson.M) error
	Count(ctx context.Context, collection string, where bson.M) (int64, error)
	Distinct(ctx context.Context, collection, field string, where bson.M) ([]interface{}, error)
	Sum(ctx context.Context, collection, field string, where bson.M) (float64, error)
	Random(ctx context.Context, collection string, where bson.M, size int64, exclude []string) ([]model.Document, error)
	Owner(ctx context.Context, collection, id string) (string, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// CollectionUsecase applies the access-engine rules on top of the store:
// system fields are stamped server-side from the caller's identity and can
// never be forged or rewritten by request payloads.
type CollectionUsecase struct {
	store DocumentStore
	log   logger.Logger
	now   func() time.Time
}

// NewCollectionUsecase creates a new collection usecase
func NewCollectionUsecase(store DocumentStore, log logger.Logger) *CollectionUsecase {
	return &CollectionUsecase{
		store: store,
		log:   log.WithComponent("collection"),
		now:   time.Now,
	}
}

// Create inserts one or many documents, stamping creation metadata over
// whatever the payload claims.
func (uc *CollectionUsecase) Create(ctx context.Context, collection string, docs []model.Document, claims *repository.Claims) ([]model.Document, error) {
	now := uc.now().Unix()
	uid := ""
	if claims != nil {
		uid = claims.UID
	}
	for _, doc := range docs {
		delete(doc, model.FieldID)
		delete(doc, model.FieldPublicID)
		doc[model.FieldCreatedAt] = now
		doc[model.FieldCreatedBy] = uid
		doc[model.FieldUpdatedAt] = now
		doc[model.FieldUpdatedBy] = uid
	}
	return uc.store.Insert(ctx, collection, docs)
}

// Get loads a single document by id.
func (uc *CollectionUsecase) Get(ctx context.Context, collection, id string, exclude []string, populate []query.Populate) (model.Document, error) {
	return uc.store.FindOne(ctx, collection, id, exclude, populate)
}

// List loads a page of documents.
func (uc *CollectionUsecase) List(ctx context.Context, collection string, opts *query.ListOptions) ([]model.Document, error) {
	return uc.store.Find(ctx, collection, opts)
}

// Update rewrites one document. Creation metadata is stripped from the
// payload and update metadata is stamped from the caller's identity.
func (uc *CollectionUsecase) Update(ctx context.Context, collection, id string, set model.Document, unset []string, claims *repository.Claims) (*model.UpdateResult, error) {
	return uc.store.UpdateOne(ctx, collection, id, uc.stampUpdate(set, claims), unset)
}

// UpdateMany rewrites every document matching the filter.
func (uc *CollectionUsecase) UpdateMany(ctx context.Context, collection string, where bson.M, set model.Document, unset []string, claims *repository.Claims) (*model.UpdateResult, error) {
	return uc.store.UpdateMany(ctx, collection, where, uc.stampUpdate(set, claims), unset)
}

func (uc *CollectionUsecase) stampUpdate(set model.Document, claims *repository.Claims) bson.M {
	stamped := bson.M{}
	for key, val := range set {
		switch key {
		case model.FieldID, model.FieldPublicID, model.FieldCreatedAt, model.FieldCreatedBy:
			continue
		}
		stamped[key] = val
	}
	stamped[model.FieldUpdatedAt] = uc.now().Unix()
	if claims != nil {
		stamped[model.FieldUpdatedBy] = claims.UID
	} else {
		stamped[model.FieldUpdatedBy] = ""
	}
	return stamped
}

// Delete removes a single document by id.
func (uc *CollectionUsecase) Delete(ctx context.Context, collection, id string) error {
	return uc.store.DeleteOne(ctx, collection, id)
}

// DeleteMany removes every document matching the filter.
func (uc *CollectionUsecase) DeleteMany(ctx context.Context, collection string, where bson.M) error {
	return uc.store.DeleteMany(ctx, collection, where)
}

// Count returns the number of documents matching the filter.
func (uc *CollectionUsecase) Count(ctx context.Context, collection string, where bson.M) (int64, error) {
	return uc.store.Count(ctx, collection, where)
}

// Distinct returns the distinct values of a field among matching documents.
func (uc *CollectionUsecase) Distinct(ctx context.Context, collection, field string, where bson.M) ([]interface{}, error) {
	return uc.store.Distinct(ctx, collection, field, where)
}

// Sum totals a numeric field among matching documents, rounded half-up to
// two decimals so floating point noise never reaches the caller. An empty
// match sums to exactly 0.
func (uc *CollectionUsecase) Sum(ctx context.Context, collection, field string, where bson.M) (float64, error) {
	raw, err := uc.store.Sum(ctx, collection, field, where)
	if err != nil {
		return 0, err
	}
	rounded, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	return rounded, nil
}

// Random returns up to size uniformly sampled documents.
func (uc *CollectionUsecase) Random(ctx context.Context, collection string, where bson.M, size int64, exclude []string) ([]model.Document, error) {
	return uc.store.Sample(ctx, collection, where, size, exclude)
}

// Owner reports the creator uid of a document. The ownership guard uses it.
func (uc *CollectionUsecase) Owner(ctx context.Context, collection, id string) (string, error) {
	return uc.store.GetOwner(ctx, collection, id)
}

// ListCollections lists every collection name in the data database.
func (uc *CollectionUsecase) ListCollections(ctx context.Context) ([]string, error) {
	return uc.store.ListCollectionNames(ctx)
}
