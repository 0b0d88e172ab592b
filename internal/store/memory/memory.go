// Package memory is an in-process appointment store for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/store"
)

// Store keeps tables of records in memory. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	tables map[string]map[string]appointment.Record

	fetchCalls  int
	deleteCalls [][]string

	// FailFetch, when set, is returned (wrapped) by FetchAll.
	FailFetch error
	// FailDeleteOn makes the n-th DeleteByIDs call (1-based) fail with FailDelete.
	FailDeleteOn int
	FailDelete   error
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Writer = (*Store)(nil)
)

// New returns a store seeded with records in the given table.
func New(table string, records ...appointment.Record) *Store {
	s := &Store{tables: make(map[string]map[string]appointment.Record)}
	if table != "" {
		s.seed(table, records)
	}
	return s
}

func (s *Store) seed(table string, records []appointment.Record) int64 {
	t, ok := s.tables[table]
	if !ok {
		t = make(map[string]appointment.Record)
		s.tables[table] = t
	}
	var n int64
	for _, r := range records {
		if _, exists := t[r.ID]; exists {
			continue
		}
		t[r.ID] = r
		n++
	}
	return n
}

// InsertRecords adds records, skipping ids already present.
func (s *Store) InsertRecords(_ context.Context, table string, records []appointment.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed(table, records), nil
}

// FetchAll evaluates q against the table in memory.
func (s *Store) FetchAll(ctx context.Context, table string, q queryir.Query) ([]appointment.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchCalls++
	if err := ctx.Err(); err != nil {
		return nil, store.NewFetchError(table, q, err)
	}
	if s.FailFetch != nil {
		return nil, store.NewFetchError(table, q, s.FailFetch)
	}
	t, ok := s.tables[table]
	if !ok {
		return nil, store.NewFetchError(table, q, store.ErrUnknownTable)
	}
	if err := queryir.Validate(q, appointment.Columns); err != nil {
		return nil, store.NewFetchError(table, q, err)
	}

	out := []appointment.Record{}
	for _, r := range t {
		match, err := eval(q.Filter, r)
		if err != nil {
			return nil, store.NewFetchError(table, q, err)
		}
		if match {
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		for _, o := range q.OrderBy {
			a, _ := field(out[i], o.Field)
			b, _ := field(out[j], o.Field)
			if a == b {
				continue
			}
			if o.Desc {
				return a > b
			}
			return a < b
		}
		return out[i].ID < out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// DeleteByIDs removes ids from the table and reports how many existed.
func (s *Store) DeleteByIDs(ctx context.Context, table string, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteCalls = append(s.deleteCalls, append([]string(nil), ids...))
	if err := ctx.Err(); err != nil {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: err}
	}
	if s.FailDeleteOn > 0 && len(s.deleteCalls) == s.FailDeleteOn {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: s.FailDelete}
	}
	t, ok := s.tables[table]
	if !ok {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: store.ErrUnknownTable}
	}

	var n int64
	for _, id := range ids {
		if _, exists := t[id]; exists {
			delete(t, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// FetchCalls reports how many times FetchAll was called.
func (s *Store) FetchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

// DeleteCalls returns the id batches passed to DeleteByIDs, in call order.
func (s *Store) DeleteCalls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.deleteCalls))
	copy(out, s.deleteCalls)
	return out
}

// IDs returns the ids currently stored in table, sorted.
func (s *Store) IDs(table string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.tables[table]))
	for id := range s.tables[table] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func eval(p queryir.Predicate, r appointment.Record) (bool, error) {
	switch pred := p.(type) {
	case nil:
		return true, nil
	case queryir.Compare:
		v, ok := field(r, pred.Field)
		if !ok {
			return false, nil
		}
		return compare(v, pred.Op, literal(pred.Value))
	case queryir.In:
		v, ok := field(r, pred.Field)
		if !ok {
			return false, nil
		}
		for _, want := range pred.Values {
			if v == literal(want) {
				return true, nil
			}
		}
		return false, nil
	case queryir.IsNull:
		_, ok := field(r, pred.Field)
		return ok == pred.Negate, nil
	case queryir.And:
		for _, sub := range pred.Predicates {
			match, err := eval(sub, r)
			if err != nil || !match {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compare(v string, op queryir.Op, want string) (bool, error) {
	c := strings.Compare(v, want)
	switch op {
	case queryir.OpEq:
		return c == 0, nil
	case queryir.OpGt:
		return c > 0, nil
	case queryir.OpGte:
		return c >= 0, nil
	case queryir.OpLt:
		return c < 0, nil
	case queryir.OpLte:
		return c <= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

func literal(v any) string {
	return fmt.Sprint(queryir.Literal(v))
}

// field returns the text value of a column and whether it is non-NULL.
func field(r appointment.Record, name string) (string, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "client_id":
		return deref(r.ClientID)
	case "pet_id":
		return deref(r.PetID)
	case "service_id":
		return deref(r.ServiceID)
	case "date":
		return r.Date, true
	case "created_at":
		return r.CreatedAt, true
	case "status":
		return r.Status, true
	case "payment_method":
		return deref(r.PaymentMethod)
	case "paid_amount":
		if !r.PaidAmount.Valid {
			return "", false
		}
		return r.PaidAmount.Decimal.String(), true
	case "payment_status":
		return deref(r.PaymentStatus)
	default:
		return "", false
	}
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}
