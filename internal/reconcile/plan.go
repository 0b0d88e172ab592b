package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/identity"
)

// DomainPlan separates plan fingerprints from any other hash in the system.
const DomainPlan = "apptrecon/plan/v1"

// Snapshot is one fetch of the record set.
type Snapshot struct {
	Table     string
	FetchedAt time.Time
	Records   []appointment.Record
}

// Plan is the read-only outcome of one reconciliation run.
// It is never partially applied.
type Plan struct {
	Table       string
	Total       int
	FetchedAt   time.Time
	KeyPolicy   identity.Policy
	Groups      []DuplicateGroup
	Survivors   []string
	ToDelete    []string
	Fingerprint string
}

// Build computes the plan for a snapshot. Only groups with two or more
// records contribute.
func Build(snap Snapshot, b identity.Builder) Plan {
	policy := b.Policy
	if policy == "" {
		policy = identity.PolicyLiteral
	}
	plan := Plan{
		Table:     snap.Table,
		Total:     len(snap.Records),
		FetchedAt: snap.FetchedAt,
		KeyPolicy: policy,
		Groups:    []DuplicateGroup{},
		Survivors: []string{},
		ToDelete:  []string{},
	}

	for _, g := range Group(snap.Records, b) {
		if !g.IsDuplicate() {
			continue
		}
		plan.Groups = append(plan.Groups, g)
		plan.Survivors = append(plan.Survivors, g.Survivor().ID)
		for _, c := range g.Candidates() {
			plan.ToDelete = append(plan.ToDelete, c.ID)
		}
	}

	plan.Fingerprint = Fingerprint(plan.Table, plan.ToDelete)
	return plan
}

// Empty reports whether the plan deletes nothing.
func (p Plan) Empty() bool {
	return len(p.ToDelete) == 0
}

// Fingerprint identifies a removal set: SHA-256 over the domain prefix, a
// null separator and the JSON encoding of the table and the sorted ids.
// Two plans with the same fingerprint delete exactly the same rows.
func Fingerprint(table string, ids []string) string {
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)

	payload, _ := json.Marshal(struct {
		Table string   `json:"table"`
		IDs   []string `json:"ids"`
	}{Table: table, IDs: sorted})

	h := sha256.New()
	h.Write([]byte(DomainPlan))
	h.Write([]byte{0x00})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
