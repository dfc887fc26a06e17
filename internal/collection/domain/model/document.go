package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// System-managed field names. Only these two pairs have an enforced meaning;
// every other field is opaque client payload round-tripped untouched.
const (
	FieldID        = "_id"
	FieldPublicID  = "id"
	FieldVersion   = "__v"
	FieldCreatedAt = "createdAt"
	FieldCreatedBy = "createdBy"
	FieldUpdatedAt = "updatedAt"
	FieldUpdatedBy = "updatedBy"

	// FieldPassword is force-hidden whenever a users document is expanded
	// into another document.
	FieldPassword = "password"
)

// Reserved collections that the generic collection routes must never reach;
// each has its own, more tightly controlled surface.
var SensitiveCollections = []string{"users", "cloudFunctions", "files"}

// IsSensitiveCollection reports whether name is one of the reserved system
// collections.
func IsSensitiveCollection(name string) bool {
	for _, s := range SensitiveCollections {
		if s == name {
			return true
		}
	}
	return false
}

// Document is one record of a schema-flexible collection: a field to value
// mapping with no enforced shape beyond the system fields.
type Document map[string]interface{}

// Presentable rewrites the document for client output: the raw storage
// identifier is replaced by the public id field and the legacy version
// marker is dropped. The document is modified in place and returned for
// chaining.
func (d Document) Presentable() Document {
	if d == nil {
		return nil
	}
	if raw, ok := d[FieldID]; ok {
		switch v := raw.(type) {
		case primitive.ObjectID:
			d[FieldPublicID] = v.Hex()
		case string:
			d[FieldPublicID] = v
		default:
			// Unusual identifier type, emit as-is rather than leak _id.
			d[FieldPublicID] = v
		}
		delete(d, FieldID)
	}
	delete(d, FieldVersion)
	return d
}

// CreatedBy returns the owner uid recorded on the document, or "" when the
// field is absent or not a string.
func (d Document) CreatedBy() string {
	uid, _ := d[FieldCreatedBy].(string)
	return uid
}

// UpdateResult reports the outcome of an update operation.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}
