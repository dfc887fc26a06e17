package model

// CloudFunction is a named, stored script. The name is the only lookup key;
// duplicate names are allowed at creation time and lookups resolve to the
// newest record, so re-creating a function effectively replaces it.
type CloudFunction struct {
	Name      string `bson:"name" json:"name"`
	Code      string `bson:"code" json:"code"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
	CreatedBy string `bson:"createdBy" json:"createdBy"`
	UpdatedAt int64  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	UpdatedBy string `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}
