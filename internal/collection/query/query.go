// Package query translates the client filter DSL (JSON match object, field
// exclusion list, population directives, pagination and sort order) into the
// primitives the MongoDB driver accepts.
package query

import (
	"encoding/json"
	"strings"
	"time"

	"docbase/internal/collection/domain/model"
	apperrors "docbase/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	// MaxPageSize bounds the worst-case result-set cost regardless of what
	// the client asks for.
	MaxPageSize     = 3000
	DefaultPageSize = 20

	SortAscending  = 1
	SortDescending = -1
)

// Populate names one expansion directive: the document field holding the
// reference, the collection it points into and an optional field selection
// for the expanded sub-document.
type Populate struct {
	Field      string   `json:"field"`
	Collection string   `json:"collection"`
	Select     []string `json:"select,omitempty"`
}

// ListOptions is the translated form of a multi-document read request.
type ListOptions struct {
	Where     bson.M
	Exclude   []string
	Populate  []Populate
	PageSize  int64
	PageNo    int64
	SortOrder int
}

// Skip returns the number of documents to skip for the requested page.
func (o *ListOptions) Skip() int64 {
	return (o.PageNo - 1) * o.PageSize
}

// ParseList translates the raw DSL parameters of a list request. Numeric
// parameters arrive already converted by the HTTP layer; zero values select
// the defaults.
func ParseList(whereRaw, excludeRaw, populateRaw string, pageSize, pageNo, sortOrder int) (*ListOptions, error) {
	where, err := ParseWhere(whereRaw)
	if err != nil {
		return nil, err
	}
	populate, err := ParsePopulate(populateRaw)
	if err != nil {
		return nil, err
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if pageNo <= 0 {
		pageNo = 1
	}
	if sortOrder != SortAscending {
		sortOrder = SortDescending
	}

	return &ListOptions{
		Where:     where,
		Exclude:   ParseExclude(excludeRaw),
		Populate:  populate,
		PageSize:  int64(pageSize),
		PageNo:    int64(pageNo),
		SortOrder: sortOrder,
	}, nil
}

// ParseWhere decodes the JSON match object and resolves the createdAt
// date-range shorthand. An empty string means "match everything".
func ParseWhere(raw string) (bson.M, error) {
	if raw == "" {
		return bson.M{}, nil
	}
	var where map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &where); err != nil {
		return nil, apperrors.NewValidationError("field where is not valid JSON").WithCause(err)
	}
	return ResolveDateRange(where), nil
}

// ResolveDateRange replaces a createdAt sub-object by a resolved Unix
// timestamp comparison. Values that are already numeric pass through
// unchanged; strings are parsed as dates. An empty (or non-object) range
// defaults to "from epoch zero" so an unconstrained date filter never
// silently matches nothing.
func ResolveDateRange(where map[string]interface{}) bson.M {
	out := bson.M(where)
	raw, ok := out[model.FieldCreatedAt]
	if !ok {
		return out
	}

	resolved := bson.M{}
	if sub, ok := raw.(map[string]interface{}); ok {
		for op, val := range sub {
			resolved[op] = toUnixTimestamp(val)
		}
	}
	if len(resolved) == 0 {
		resolved["$gte"] = int64(0)
	}

	out[model.FieldCreatedAt] = resolved
	return out
}

// toUnixTimestamp normalizes a range bound to Unix seconds. Numbers are
// already timestamps and must never be converted again.
func toUnixTimestamp(val interface{}) interface{} {
	switch v := val.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		return val
	case string:
		if t, ok := parseDate(v); ok {
			return t.Unix()
		}
		return val
	case time.Time:
		return v.Unix()
	default:
		return val
	}
}

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseExclude splits the comma-separated exclusion list. The identifier
// fields are dropped from the list: the public id is always emitted and the
// raw _id never is, independent of what the client asks.
func ParseExclude(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" || field == model.FieldID || field == model.FieldPublicID {
			continue
		}
		out = append(out, field)
	}
	return out
}

// ParsePopulate decodes the JSON array of population directives.
func ParsePopulate(raw string) ([]Populate, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var populate []Populate
	if err := json.Unmarshal([]byte(raw), &populate); err != nil {
		return nil, apperrors.NewValidationError("field populate is not valid JSON").WithCause(err)
	}
	out := populate[:0]
	for _, p := range populate {
		if p.Field == "" || p.Collection == "" {
			return nil, apperrors.NewValidationError("field populate requires field and collection on every directive")
		}
		out = append(out, p)
	}
	return out, nil
}

// ExcludeProjection builds an exclusion projection from the forced system
// exclusions plus the user-requested ones. The raw identifier stays in the
// projection; it is remapped to the public id after decoding.
func ExcludeProjection(exclude []string) bson.M {
	projection := bson.M{model.FieldVersion: 0}
	for _, field := range exclude {
		if field == model.FieldID || field == model.FieldPublicID {
			continue
		}
		projection[field] = 0
	}
	return projection
}

// NormalizeSumWhere flattens {$eq: x} sub-objects to direct equality and
// resolves the createdAt range, mirroring what the sum operation expects.
func NormalizeSumWhere(where bson.M) bson.M {
	if where == nil {
		return bson.M{}
	}
	out := bson.M{}
	for key, val := range where {
		if key == model.FieldCreatedAt {
			out[key] = val
			continue
		}
		if sub, ok := val.(map[string]interface{}); ok {
			if eq, found := sub["$eq"]; found {
				out[key] = eq
				continue
			}
		}
		out[key] = val
	}
	return ResolveDateRange(out)
}
