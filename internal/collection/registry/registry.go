// Package registry maps collection names to lazily created model handles.
// A handle is bound exactly once per name for the lifetime of the process,
// also under concurrent first access.
package registry

import (
	"context"
	"sync"
	"time"

	"docbase/internal/collection/domain/model"
	"docbase/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/singleflight"
)

const provisionTimeout = 10 * time.Second

// Handle is the cached binding for one collection name. It is shared by all
// requests for that collection and never mutated after creation.
type Handle struct {
	name string
	coll *mongo.Collection
}

// Name returns the collection name the handle is bound to.
func (h *Handle) Name() string {
	return h.name
}

// Collection returns the underlying driver collection.
func (h *Handle) Collection() *mongo.Collection {
	return h.coll
}

// Registry is the process-wide name-to-handle cache. Model is total over
// valid name strings: it never fails and never blocks on storage; the
// provisioning side effect runs in the background.
type Registry struct {
	db      *mongo.Database
	log     logger.Logger
	handles sync.Map
	group   singleflight.Group

	// provision runs once per name after the handle is bound.
	provision func(h *Handle)
}

// NewRegistry creates a registry over the given data database.
func NewRegistry(db *mongo.Database, log logger.Logger) *Registry {
	r := &Registry{
		db:  db,
		log: log.WithComponent("registry"),
	}
	r.provision = r.ensureIndexes
	return r
}

// Model returns the handle for name, creating it on first access. Repeated
// calls with the same name return the identical handle.
func (r *Registry) Model(name string) *Handle {
	if v, ok := r.handles.Load(name); ok {
		return v.(*Handle)
	}

	v, _, _ := r.group.Do(name, func() (interface{}, error) {
		if v, ok := r.handles.Load(name); ok {
			return v, nil
		}
		h := &Handle{name: name, coll: r.db.Collection(name)}
		r.handles.Store(name, h)
		go r.provision(h)
		return h, nil
	})
	return v.(*Handle)
}

// ensureIndexes backs the system fields with indexes. Best effort: a failure
// is logged and never surfaces to the request that triggered the binding.
func (r *Registry) ensureIndexes(h *Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: model.FieldCreatedAt, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldCreatedBy, Value: 1}}},
	}
	if _, err := h.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		r.log.Warnf("failed to ensure indexes for collection %s: %v", h.name, err)
	}
}
