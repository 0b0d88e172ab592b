package querysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/queryir"
)

var columns = []string{"id", "client_id", "date", "created_at", "status"}

func TestCompile_AllRows(t *testing.T) {
	sql, params, err := NewCompiler(SQLite).Compile(Select{Table: "appointments", Columns: columns})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, client_id, date, created_at, status FROM appointments ORDER BY id COLLATE BINARY ASC",
		sql)
	assert.Empty(t, params)
}

func TestCompile_RangeFilterSQLite(t *testing.T) {
	q := queryir.Query{
		Filter: queryir.All(
			queryir.Gte("created_at", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)),
			queryir.Lt("created_at", "2025-12-31"),
			queryir.Eq("status", "scheduled"),
		),
		OrderBy: []queryir.Order{{Field: "created_at"}},
		Limit:   50,
	}
	sql, params, err := NewCompiler(SQLite).Compile(Select{Table: "appointments", Columns: columns, Query: q})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, client_id, date, created_at, status FROM appointments"+
			" WHERE (created_at >= ? AND created_at < ? AND status = ?)"+
			" ORDER BY created_at ASC, id COLLATE BINARY ASC LIMIT 50",
		sql)
	assert.Equal(t, []any{"2025-12-01T00:00:00.000000Z", "2025-12-31", "scheduled"}, params)

	// Values are bound, never interpolated.
	assert.NotContains(t, sql, "scheduled")
}

func TestCompile_PostgresPlaceholdersAndExpr(t *testing.T) {
	q := queryir.Query{
		Filter: queryir.All(
			queryir.In{Field: "client_id", Values: []any{"a", "b"}},
			queryir.IsNull{Field: "status", Negate: true},
			queryir.Lte("date", "2025-12-31"),
		),
	}
	s := Select{
		Table:   "appointments",
		Columns: columns,
		Expr:    map[string]string{"id": "id::text", "created_at": "created_at::text"},
		Query:   q,
	}
	sql, params, err := NewCompiler(Postgres).Compile(s)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id::text AS id, client_id, date, created_at::text AS created_at, status FROM appointments"+
			" WHERE (client_id IN ($1, $2) AND status IS NOT NULL AND date <= $3)"+
			` ORDER BY id::text COLLATE "C" ASC`,
		sql)
	assert.Equal(t, []any{"a", "b", "2025-12-31"}, params)
}

func TestCompile_IDOrderNotDuplicated(t *testing.T) {
	q := queryir.Query{OrderBy: []queryir.Order{{Field: "id", Desc: true}}}
	sql, _, err := NewCompiler(SQLite).Compile(Select{Table: "t", Columns: columns, Query: q})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, client_id, date, created_at, status FROM t ORDER BY id COLLATE BINARY ASC", sql)
}

func TestCompile_Rejects(t *testing.T) {
	c := NewCompiler(SQLite)

	_, _, err := c.Compile(Select{Table: "bad table", Columns: columns})
	assert.Error(t, err)

	_, _, err = c.Compile(Select{Table: "t"})
	assert.Error(t, err)

	_, _, err = c.Compile(Select{Table: "t", Columns: columns, Query: queryir.Query{Filter: queryir.Eq("pet_id", "x")}})
	assert.ErrorContains(t, err, "unknown field")

	_, _, err = c.Compile(Select{Table: "t", Columns: []string{"id", "bad col"}})
	assert.Error(t, err)
}

func TestCompileDeleteIn(t *testing.T) {
	sql, err := NewCompiler(SQLite).CompileDeleteIn("appointments", "id", 3)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM appointments WHERE id IN (?, ?, ?)", sql)

	sql, err = NewCompiler(Postgres).CompileDeleteIn("appointments", "id", 2)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM appointments WHERE id IN ($1, $2)", sql)

	_, err = NewCompiler(SQLite).CompileDeleteIn("appointments", "id", 0)
	assert.Error(t, err)

	_, err = NewCompiler(SQLite).CompileDeleteIn("x;y", "id", 1)
	assert.Error(t, err)
}
