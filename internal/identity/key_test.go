package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/appointment"
)

func rec(id string, client, pet, service *string, date string) appointment.Record {
	return appointment.Record{ID: id, ClientID: client, PetID: pet, ServiceID: service, Date: date}
}

var p = appointment.Ptr

func TestBuild_Literal(t *testing.T) {
	b := Builder{}

	key := b.Build(rec("1", p("A"), p("B"), p("C"), "2025-12-20"))
	assert.Equal(t, Key("A|B|2025-12-20|C"), key)

	key = b.Build(rec("2", p("A"), p("B"), nil, "2025-12-20"))
	assert.Equal(t, Key("A|B|2025-12-20|undefined"), key)

	key = b.Build(rec("3", nil, nil, nil, ""))
	assert.Equal(t, Key("undefined|undefined|undefined|undefined"), key)
}

func TestBuild_LiteralGroupsAbsentFields(t *testing.T) {
	b := Builder{Policy: PolicyLiteral}

	a := b.Build(rec("1", p("A"), p("B"), nil, "2025-12-20"))
	c := b.Build(rec("2", p("A"), p("B"), nil, "2025-12-20"))
	assert.Equal(t, a, c)

	// An absent pet does not collide with a different absent field.
	d := b.Build(rec("3", p("A"), nil, p("B"), "2025-12-20"))
	assert.NotEqual(t, a, d)
}

func TestBuild_StrictIsolatesAbsentFields(t *testing.T) {
	b := Builder{Policy: PolicyStrict}

	a := b.Build(rec("1", p("A"), p("B"), nil, "2025-12-20"))
	c := b.Build(rec("2", p("A"), p("B"), nil, "2025-12-20"))
	assert.NotEqual(t, a, c)
	assert.Equal(t, Key("!unmatched:1"), a)

	full1 := b.Build(rec("3", p("A"), p("B"), p("C"), "2025-12-20"))
	full2 := b.Build(rec("4", p("A"), p("B"), p("C"), "2025-12-20"))
	assert.Equal(t, full1, full2)

	assert.Equal(t, Key("!unmatched:5"), b.Build(rec("5", p("A"), p("B"), p("C"), "")))
}

func TestBuild_EmptyStringIsNotAbsent(t *testing.T) {
	b := Builder{}

	empty := b.Build(rec("1", p(""), p("B"), p("C"), "2025-12-20"))
	absent := b.Build(rec("2", nil, p("B"), p("C"), "2025-12-20"))
	assert.NotEqual(t, empty, absent)
}

func TestBuild_NormalizeDates(t *testing.T) {
	raw := Builder{}
	normalized := Builder{NormalizeDates: true}

	iso := rec("1", p("A"), p("B"), p("C"), "2025-12-20")
	local := rec("2", p("A"), p("B"), p("C"), "20/12/2025")
	garbage := rec("3", p("A"), p("B"), p("C"), "soon")

	assert.NotEqual(t, raw.Build(iso), raw.Build(local))
	assert.Equal(t, normalized.Build(iso), normalized.Build(local))
	assert.Equal(t, Key("A|B|soon|C"), normalized.Build(garbage))
}

func TestBuild_Deterministic(t *testing.T) {
	b := Builder{}
	r := rec("1", p("A"), p("B"), p("C"), "2025-12-20")
	for i := 0; i < 5; i++ {
		assert.Equal(t, b.Build(r), b.Build(r))
	}
}

func TestParsePolicy(t *testing.T) {
	got, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyLiteral, got)

	got, err = ParsePolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, got)

	_, err = ParsePolicy("fuzzy")
	assert.Error(t, err)
}
