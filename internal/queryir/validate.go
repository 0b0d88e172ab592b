package queryir

import (
	"fmt"
	"regexp"
	"time"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is safe to splice into SQL as a table
// or column name.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Validate checks a query against the set of fields it may reference.
// A nil allowed set only checks identifier syntax.
//
// Validate is a pure function with no side effects.
func Validate(q Query, allowed []string) error {
	v := &validator{allowed: map[string]bool{}}
	for _, f := range allowed {
		v.allowed[f] = true
	}
	v.restrict = allowed != nil

	if q.Filter != nil {
		if err := v.predicate(q.Filter); err != nil {
			return err
		}
	}
	for _, o := range q.OrderBy {
		if err := v.field(o.Field); err != nil {
			return fmt.Errorf("order by: %w", err)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	return nil
}

type validator struct {
	allowed  map[string]bool
	restrict bool
}

func (v *validator) field(name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("invalid field name %q", name)
	}
	if v.restrict && !v.allowed[name] {
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

func (v *validator) predicate(p Predicate) error {
	switch pred := p.(type) {
	case Compare:
		if err := v.field(pred.Field); err != nil {
			return err
		}
		switch pred.Op {
		case OpEq, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("unsupported operator %q on %s", pred.Op, pred.Field)
		}
		return checkValue(pred.Field, pred.Value)
	case In:
		if err := v.field(pred.Field); err != nil {
			return err
		}
		if len(pred.Values) == 0 {
			return fmt.Errorf("empty IN list on %s", pred.Field)
		}
		for _, val := range pred.Values {
			if err := checkValue(pred.Field, val); err != nil {
				return err
			}
		}
		return nil
	case IsNull:
		return v.field(pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			if err := v.predicate(sub); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return fmt.Errorf("nil predicate")
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func checkValue(field string, v any) error {
	switch v.(type) {
	case string, int, int64, bool, time.Time:
		return nil
	default:
		return fmt.Errorf("unsupported value type %T for %s", v, field)
	}
}
