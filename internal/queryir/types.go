package queryir

import (
	"fmt"
	"strings"
	"time"
)

// Predicate is a filter condition. Sealed to this package.
type Predicate interface {
	predicateNode()
	String() string
}

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

// Compare is <field> <op> <value>.
type Compare struct {
	Field string
	Op    Op
	Value any
}

func (Compare) predicateNode() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, formatValue(c.Value))
}

// In is <field> IN (<values>).
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

func (in In) String() string {
	parts := make([]string, len(in.Values))
	for i, v := range in.Values {
		parts[i] = formatValue(v)
	}
	return fmt.Sprintf("%s IN (%s)", in.Field, strings.Join(parts, ", "))
}

// IsNull is <field> IS NULL, or IS NOT NULL when Negate is set.
type IsNull struct {
	Field  string
	Negate bool
}

func (IsNull) predicateNode() {}

func (n IsNull) String() string {
	if n.Negate {
		return n.Field + " IS NOT NULL"
	}
	return n.Field + " IS NULL"
}

// And is the conjunction of its predicates. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (a And) String() string {
	if len(a.Predicates) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(a.Predicates))
	for i, p := range a.Predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// Order is one ORDER BY term.
type Order struct {
	Field string
	Desc  bool
}

// Query describes one fetch. The zero value fetches everything.
//
// Backends always append the record id as the final ordering term so that
// results are deterministic across fetches.
type Query struct {
	Filter  Predicate // nil = no filter
	OrderBy []Order
	Limit   int // 0 = no limit
}

// String renders the query for error messages and audit lines.
func (q Query) String() string {
	var parts []string
	if q.Filter != nil {
		parts = append(parts, "where "+q.Filter.String())
	}
	if len(q.OrderBy) > 0 {
		terms := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			terms[i] = o.Field
			if o.Desc {
				terms[i] += " desc"
			}
		}
		parts = append(parts, "order by "+strings.Join(terms, ", "))
	}
	if q.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit %d", q.Limit))
	}
	if len(parts) == 0 {
		return "all rows"
	}
	return strings.Join(parts, " ")
}

// Eq builds an equality predicate.
func Eq(field string, v any) Compare { return Compare{Field: field, Op: OpEq, Value: v} }

// Gt builds a strict lower bound.
func Gt(field string, v any) Compare { return Compare{Field: field, Op: OpGt, Value: v} }

// Gte builds an inclusive lower bound.
func Gte(field string, v any) Compare { return Compare{Field: field, Op: OpGte, Value: v} }

// Lt builds a strict upper bound.
func Lt(field string, v any) Compare { return Compare{Field: field, Op: OpLt, Value: v} }

// Lte builds an inclusive upper bound.
func Lte(field string, v any) Compare { return Compare{Field: field, Op: OpLte, Value: v} }

// All joins predicates with AND, dropping nils. Returns nil when nothing is left.
func All(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// TimeLayout is how time.Time literals are rendered for text comparison.
// Fixed-width so lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Literal converts a value to the form backends bind: time.Time becomes a
// fixed-width UTC string, int becomes int64, everything else is unchanged.
func Literal(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(TimeLayout)
	case int:
		return int64(val)
	default:
		return v
	}
}

func formatValue(v any) string {
	switch val := Literal(v).(type) {
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
