package queryir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fields = []string{"id", "client_id", "created_at", "status"}

func TestValidate_Accepts(t *testing.T) {
	q := Query{
		Filter: All(
			Gte("created_at", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)),
			Lt("created_at", "2025-12-31"),
			Eq("status", "scheduled"),
			In{Field: "client_id", Values: []any{"a", "b"}},
			IsNull{Field: "client_id", Negate: true},
		),
		OrderBy: []Order{{Field: "created_at", Desc: true}},
		Limit:   10,
	}
	require.NoError(t, Validate(q, fields))
}

func TestValidate_ZeroQuery(t *testing.T) {
	assert.NoError(t, Validate(Query{}, fields))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"unknown field", Query{Filter: Eq("nope", "x")}},
		{"injection", Query{Filter: Eq("id; DROP TABLE x", "x")}},
		{"bad operator", Query{Filter: Compare{Field: "id", Op: "LIKE", Value: "x"}}},
		{"float value", Query{Filter: Eq("id", 1.5)}},
		{"empty in", Query{Filter: In{Field: "id"}}},
		{"nil inside and", Query{Filter: And{Predicates: []Predicate{nil}}}},
		{"unknown order field", Query{OrderBy: []Order{{Field: "nope"}}}},
		{"negative limit", Query{Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.q, fields))
		})
	}
}

func TestValidate_NilAllowedChecksSyntaxOnly(t *testing.T) {
	assert.NoError(t, Validate(Query{Filter: Eq("anything", "x")}, nil))
	assert.Error(t, Validate(Query{Filter: Eq("bad-name", "x")}, nil))
}

func TestQuery_String(t *testing.T) {
	q := Query{
		Filter: All(
			Gte("created_at", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)),
			Eq("status", "scheduled"),
		),
		OrderBy: []Order{{Field: "created_at", Desc: true}},
		Limit:   5,
	}
	assert.Equal(t,
		`where created_at >= "2025-12-01T00:00:00.000000Z" AND status = "scheduled" order by created_at desc limit 5`,
		q.String())
	assert.Equal(t, "all rows", Query{}.String())
}

func TestAll(t *testing.T) {
	assert.Nil(t, All())
	assert.Nil(t, All(nil, nil))

	single := Eq("id", "1")
	assert.Equal(t, single, All(nil, single))

	both := All(single, Eq("status", "x"))
	and, ok := both.(And)
	require.True(t, ok)
	assert.Len(t, and.Predicates, 2)
}

func TestLiteral(t *testing.T) {
	at := time.Date(2025, 12, 1, 7, 0, 0, 0, time.FixedZone("", -3*60*60))
	assert.Equal(t, "2025-12-01T10:00:00.000000Z", Literal(at))
	assert.Equal(t, int64(3), Literal(3))
	assert.Equal(t, "x", Literal("x"))
}
