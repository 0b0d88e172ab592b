package reconcile

import (
	"sort"
	"time"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/identity"
)

// DuplicateGroup is a set of records sharing one identity key, ordered by
// (createdAt asc, id asc). The first record is the survivor.
type DuplicateGroup struct {
	Key     identity.Key
	Records []appointment.Record
}

// Survivor returns the record kept for this group.
func (g DuplicateGroup) Survivor() appointment.Record {
	return g.Records[0]
}

// Candidates returns the records slated for removal.
func (g DuplicateGroup) Candidates() []appointment.Record {
	return g.Records[1:]
}

// IsDuplicate reports whether the group has anything to remove.
func (g DuplicateGroup) IsDuplicate() bool {
	return len(g.Records) > 1
}

// Group partitions records by identity key.
//
// Every input record appears in exactly one returned group. Groups come
// back in first-seen order; within a group records are sorted with
// survivorLess, so the result is reproducible for a fixed snapshot.
func Group(records []appointment.Record, b identity.Builder) []DuplicateGroup {
	index := make(map[identity.Key]int)
	groups := []DuplicateGroup{}

	for _, r := range records {
		key := b.Build(r)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DuplicateGroup{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	for i := range groups {
		if len(groups[i].Records) < 2 {
			continue
		}
		sortSurvivorFirst(groups[i].Records)
	}
	return groups
}

// sortSurvivorFirst orders records by creation time, then id.
// Parsed timestamps are computed once per record.
func sortSurvivorFirst(records []appointment.Record) {
	type keyed struct {
		rec     appointment.Record
		created time.Time
		ok      bool
	}
	ks := make([]keyed, len(records))
	for i, r := range records {
		t, ok := r.CreatedTime()
		ks[i] = keyed{rec: r, created: t, ok: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		// Missing timestamps sort last.
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && !a.created.Equal(b.created) {
			return a.created.Before(b.created)
		}
		return a.rec.ID < b.rec.ID
	})
	for i := range ks {
		records[i] = ks[i].rec
	}
}
