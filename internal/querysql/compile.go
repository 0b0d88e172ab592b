// Package querysql compiles queryir queries to parameterized SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/apptrecon/internal/queryir"
)

// Dialect captures the differences between the SQL stores we talk to.
type Dialect struct {
	Name string

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// Collate is appended to text ordering terms for byte-wise ordering.
	Collate string
}

// SQLite uses ? placeholders and BINARY collation.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Collate:     "COLLATE BINARY",
}

// Postgres uses $n placeholders and the C collation.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Collate:     `COLLATE "C"`,
}

// Select describes what to read.
type Select struct {
	Table string

	// Columns lists the column names to read, in scan order.
	Columns []string

	// Expr optionally overrides how a column is read, e.g. "paid_amount::text".
	// The result is always aliased back to the column name.
	Expr map[string]string

	// IDColumn is the deterministic tiebreaker appended to every ORDER BY.
	IDColumn string

	Query queryir.Query
}

// Compiler compiles queries for one dialect.
//
// CRITICAL: Every SELECT ends with an ORDER BY on the id column so results
// are deterministic across fetches.
// CRITICAL: Values are always bound as parameters, never interpolated.
type Compiler struct {
	dialect Dialect
}

// NewCompiler creates a compiler for d.
func NewCompiler(d Dialect) *Compiler {
	return &Compiler{dialect: d}
}

// Compile converts a Select to (sql, params).
func (c *Compiler) Compile(s Select) (string, []any, error) {
	if !queryir.ValidIdentifier(s.Table) {
		return "", nil, fmt.Errorf("invalid table name %q", s.Table)
	}
	if len(s.Columns) == 0 {
		return "", nil, fmt.Errorf("select from %s: no columns", s.Table)
	}
	idCol := s.IDColumn
	if idCol == "" {
		idCol = "id"
	}
	if err := queryir.Validate(s.Query, s.Columns); err != nil {
		return "", nil, fmt.Errorf("compile query on %s: %w", s.Table, err)
	}

	cols := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		if !queryir.ValidIdentifier(col) {
			return "", nil, fmt.Errorf("invalid column name %q", col)
		}
		if expr, ok := s.Expr[col]; ok {
			cols[i] = fmt.Sprintf("%s AS %s", expr, col)
		} else {
			cols[i] = col
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(cols, ", "), s.Table)

	b := &binder{dialect: c.dialect}
	if s.Query.Filter != nil {
		where, err := b.predicate(s.Query.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	// MANDATORY: id tiebreaker last.
	var terms []string
	for _, o := range s.Query.OrderBy {
		if o.Field == idCol {
			continue
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, fmt.Sprintf("%s %s", o.Field, dir))
	}
	terms = append(terms, fmt.Sprintf("%s %s ASC", c.idOrderExpr(idCol), c.dialect.Collate))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(terms, ", "))

	if s.Query.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", s.Query.Limit)
	}

	return sb.String(), b.params, nil
}

func (c *Compiler) idOrderExpr(idCol string) string {
	if c.dialect.Name == Postgres.Name {
		// Ids may be uuid or integer columns; order them as text.
		return idCol + "::text"
	}
	return idCol
}

// CompileDeleteIn builds DELETE ... WHERE id IN (...) for n ids.
// Used by dialects without array parameters.
func (c *Compiler) CompileDeleteIn(table, idCol string, n int) (string, error) {
	if !queryir.ValidIdentifier(table) || !queryir.ValidIdentifier(idCol) {
		return "", fmt.Errorf("invalid identifier in delete from %q", table)
	}
	if n <= 0 {
		return "", fmt.Errorf("delete from %s: no ids", table)
	}
	ph := make([]string, n)
	for i := range ph {
		ph[i] = c.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", table, idCol, strings.Join(ph, ", ")), nil
}

// binder accumulates parameters while rendering predicates.
type binder struct {
	dialect Dialect
	params  []any
}

func (b *binder) bind(v any) string {
	b.params = append(b.params, queryir.Literal(v))
	return b.dialect.Placeholder(len(b.params))
}

func (b *binder) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return fmt.Sprintf("%s %s %s", pred.Field, pred.Op, b.bind(pred.Value)), nil
	case queryir.In:
		ph := make([]string, len(pred.Values))
		for i, v := range pred.Values {
			ph[i] = b.bind(v)
		}
		return fmt.Sprintf("%s IN (%s)", pred.Field, strings.Join(ph, ", ")), nil
	case queryir.IsNull:
		if pred.Negate {
			return pred.Field + " IS NOT NULL", nil
		}
		return pred.Field + " IS NULL", nil
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil // vacuous truth
		}
		parts := make([]string, len(pred.Predicates))
		for i, sub := range pred.Predicates {
			sql, err := b.predicate(sub)
			if err != nil {
				return "", err
			}
			parts[i] = sql
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}
