// Package repository implements the generic, per-entity persistence layer:
// a shared CRUD/filter/bulk-upsert engine parameterized over the three
// domain entities, following the hand-written-SQL style of pkg/incident's
// store rather than an ORM or a query-builder.
package repository

import (
	"fmt"
	"strings"
	"time"
)

// Op is a filter comparison operator, per the field__op filter grammar.
type Op string

// Supported filter operators.
const (
	OpEq        Op = "eq"
	OpNe        Op = "ne"
	OpGt        Op = "gt"
	OpGe        Op = "ge"
	OpLt        Op = "lt"
	OpLe        Op = "le"
	OpIn        Op = "in"
	OpNotIn     Op = "not_in"
	OpLike      Op = "like"
	OpILike     Op = "ilike"
	OpIsNull    Op = "is_null"
	OpIsNotNull Op = "is_not_null"
)

// Condition is one filter predicate: Field compared against Value using Op.
// Value is ignored for OpIsNull/OpIsNotNull.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq is a convenience constructor for the common equality case.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// knownColumns restricts BuildWhere to columns a Metadata declares;
// unknown fields are silently ignored, per the filter grammar's contract.
func buildPredicate(c Condition, paramIdx int, knownColumns map[string]bool) (clause string, arg any, consumed bool) {
	if !knownColumns[c.Field] {
		return "", nil, false
	}

	value := normalizeValue(c.Value)

	switch c.Op {
	case OpEq:
		return fmt.Sprintf("%s = $%d", c.Field, paramIdx), value, true
	case OpNe:
		return fmt.Sprintf("%s != $%d", c.Field, paramIdx), value, true
	case OpGt:
		return fmt.Sprintf("%s > $%d", c.Field, paramIdx), value, true
	case OpGe:
		return fmt.Sprintf("%s >= $%d", c.Field, paramIdx), value, true
	case OpLt:
		return fmt.Sprintf("%s < $%d", c.Field, paramIdx), value, true
	case OpLe:
		return fmt.Sprintf("%s <= $%d", c.Field, paramIdx), value, true
	case OpIn:
		return fmt.Sprintf("%s = ANY($%d)", c.Field, paramIdx), value, true
	case OpNotIn:
		return fmt.Sprintf("%s != ALL($%d)", c.Field, paramIdx), value, true
	case OpLike:
		return fmt.Sprintf("%s LIKE $%d", c.Field, paramIdx), wrapLike(value), true
	case OpILike:
		return fmt.Sprintf("%s ILIKE $%d", c.Field, paramIdx), wrapLike(value), true
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", c.Field), nil, false
	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", c.Field), nil, false
	default:
		return "", nil, false
	}
}

func normalizeValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

func wrapLike(v any) any {
	if s, ok := v.(string); ok {
		return "%" + s + "%"
	}
	return v
}

// BuildWhere compiles a set of Conditions into a SQL WHERE clause (without
// the leading "WHERE") plus its positional arguments, skipping any
// condition referencing a column not present in knownColumns. Returns an
// empty clause and nil args when no condition survives.
func BuildWhere(conditions []Condition, knownColumns map[string]bool) (string, []any) {
	var clauses []string
	var args []any
	idx := 1

	for _, c := range conditions {
		clause, arg, consumesArg := buildPredicate(c, idx, knownColumns)
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		if consumesArg {
			args = append(args, arg)
			idx++
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return strings.Join(clauses, " AND "), args
}
