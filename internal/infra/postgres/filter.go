package postgres

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vinayakry63/lead-manager/internal/domain"
)

// compileFilter translates a client filter spec into a SQL WHERE clause and
// its positional arguments. The owner predicate always binds $1, so every
// compiled query stays owner-scoped regardless of what the client sends.
//
// Unknown fields, operators not legal for a field's kind, and values of the
// wrong shape are dropped silently: a bad clause narrows nothing, it never
// fails the query. Column names come from the closed FilterableFields
// vocabulary, never from client input.
func compileFilter(ownerID string, spec domain.FilterSpec) (string, []any) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}

	// Deterministic clause order keeps generated SQL stable.
	fields := make([]string, 0, len(spec))
	for f := range spec {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		kind, ok := domain.FilterableFields[field]
		if !ok {
			continue
		}
		clause := spec[field]
		if !kind.Allows(clause.Operator) {
			continue
		}
		cond, condArgs, ok := compileClause(field, kind, clause, len(args))
		if !ok {
			continue
		}
		where = append(where, cond)
		args = append(args, condArgs...)
	}

	return strings.Join(where, " AND "), args
}

// compileClause renders a single predicate. used is the number of arguments
// already bound, so the first placeholder here is $used+1.
func compileClause(field string, kind domain.FieldKind, c domain.FilterClause, used int) (string, []any, bool) {
	n := used + 1

	switch kind {
	case domain.KindString:
		v, ok := c.Value.(string)
		if !ok {
			return "", nil, false
		}
		if c.Operator == domain.OpContains {
			return fmt.Sprintf("%s ILIKE $%d", field, n), []any{"%" + escapeLike(v) + "%"}, true
		}
		return fmt.Sprintf("%s = $%d", field, n), []any{v}, true

	case domain.KindEnum:
		if c.Operator == domain.OpIn {
			vals, ok := toStringSlice(c.Value)
			if !ok {
				return "", nil, false
			}
			if len(vals) == 0 {
				// An explicit empty list matches nothing.
				return "FALSE", nil, true
			}
			return fmt.Sprintf("%s = ANY($%d)", field, n), []any{vals}, true
		}
		v, ok := c.Value.(string)
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%s = $%d", field, n), []any{v}, true

	case domain.KindNumber:
		if c.Operator == domain.OpBetween {
			lo, hi, ok := toNumberPair(c.Value)
			if !ok {
				return "", nil, false
			}
			return fmt.Sprintf("%s BETWEEN $%d AND $%d", field, n, n+1), []any{lo, hi}, true
		}
		v, ok := toNumber(c.Value)
		if !ok {
			return "", nil, false
		}
		op := map[string]string{domain.OpEquals: "=", domain.OpGT: ">", domain.OpLT: "<"}[c.Operator]
		return fmt.Sprintf("%s %s $%d", field, op, n), []any{v}, true

	case domain.KindDate:
		if c.Operator == domain.OpBetween {
			pair, ok := c.Value.([]any)
			if !ok || len(pair) != 2 {
				return "", nil, false
			}
			lo, okLo := toTime(pair[0])
			hi, okHi := toTime(pair[1])
			if !okLo || !okHi {
				return "", nil, false
			}
			return fmt.Sprintf("%s BETWEEN $%d AND $%d", field, n, n+1), []any{lo, hi}, true
		}
		t, ok := toTime(c.Value)
		if !ok {
			return "", nil, false
		}
		switch c.Operator {
		case domain.OpOn:
			// One-day half-open interval starting at the given instant.
			// Bare dates parse to midnight, so they still cover the whole
			// calendar day.
			return fmt.Sprintf("(%s >= $%d AND %s < $%d)", field, n, field, n+1),
				[]any{t, t.Add(24 * time.Hour)}, true
		case domain.OpBefore:
			return fmt.Sprintf("%s < $%d", field, n), []any{t}, true
		case domain.OpAfter:
			return fmt.Sprintf("%s > $%d", field, n), []any{t}, true
		}
		return "", nil, false

	case domain.KindBool:
		v, ok := c.Value.(bool)
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%s = $%d", field, n), []any{v}, true
	}

	return "", nil, false
}

// escapeLike escapes LIKE metacharacters so a contains filter matches the
// value literally.
func escapeLike(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "%", `\%`)
	v = strings.ReplaceAll(v, "_", `\_`)
	return v
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toNumberPair(v any) (float64, float64, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return 0, 0, false
	}
	lo, okLo := toNumber(pair[0])
	hi, okHi := toNumber(pair[1])
	return lo, hi, okLo && okHi
}

func toStringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// toTime parses date filter values: RFC 3339 timestamps or bare dates.
// Bare dates are interpreted as midnight UTC.
func toTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
