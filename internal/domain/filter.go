package domain

import "encoding/json"

// Filter operators. Each filterable field admits a subset of these; the
// compiler drops any clause whose operator is not legal for its field.
const (
	OpEquals   = "equals"
	OpContains = "contains"
	OpIn       = "in"
	OpGT       = "gt"
	OpLT       = "lt"
	OpBetween  = "between"
	OpOn       = "on"
	OpBefore   = "before"
	OpAfter    = "after"
)

// FieldKind classifies a filterable field and determines its legal operators.
type FieldKind int

const (
	KindString FieldKind = iota
	KindEnum
	KindNumber
	KindDate
	KindBool
)

// FilterableFields is the closed vocabulary of fields a FilterSpec may
// reference. Anything else in a spec is silently ignored.
var FilterableFields = map[string]FieldKind{
	"email":            KindString,
	"company":          KindString,
	"city":             KindString,
	"status":           KindEnum,
	"source":           KindEnum,
	"score":            KindNumber,
	"lead_value":       KindNumber,
	"created_at":       KindDate,
	"last_activity_at": KindDate,
	"is_qualified":     KindBool,
}

// Allows reports whether op is legal for fields of this kind.
func (k FieldKind) Allows(op string) bool {
	switch k {
	case KindString:
		return op == OpEquals || op == OpContains
	case KindEnum:
		return op == OpEquals || op == OpIn
	case KindNumber:
		return op == OpEquals || op == OpGT || op == OpLT || op == OpBetween
	case KindDate:
		return op == OpOn || op == OpBefore || op == OpAfter || op == OpBetween
	case KindBool:
		return op == OpEquals
	}
	return false
}

// FilterClause is one predicate descriptor: an operator plus its value.
// The value shape depends on the operator (scalar, pair, or list); it is
// kept untyped here and coerced by the query compiler.
type FilterClause struct {
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// FilterSpec is the client-supplied mapping from field name to predicate.
// It is ephemeral: parsed per request, never persisted.
type FilterSpec map[string]FilterClause

// ParseFilterSpec decodes the JSON `filters` query parameter. An empty
// string yields an empty spec. Malformed JSON is a request error; unknown
// fields and illegal operators inside well-formed JSON are not (they are
// ignored at compile time, by design).
func ParseFilterSpec(raw string) (FilterSpec, error) {
	if raw == "" {
		return FilterSpec{}, nil
	}
	var spec FilterSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, &ErrValidation{Field: "filters", Message: "must be a valid JSON filter object"}
	}
	return spec, nil
}
