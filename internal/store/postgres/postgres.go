// Package postgres reads and deletes appointments in the remote PostgreSQL
// database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/querysql"
	"github.com/roach88/apptrecon/internal/store"
)

// UndefinedTableCode is the SQLSTATE for a missing relation.
const UndefinedTableCode = "42P01"

// textColumns are read as text so the engine sees the literal value the
// database holds, whatever the declared column type is.
var textColumns = map[string]string{
	"id":             "id::text",
	"client_id":      "client_id::text",
	"pet_id":         "pet_id::text",
	"service_id":     "service_id::text",
	"date":           "date::text",
	"created_at":     "created_at::text",
	"status":         "status::text",
	"payment_method": "payment_method::text",
	"paid_amount":    "paid_amount::text",
	"payment_status": "payment_status::text",
}

// Store is a Postgres implementation of store.Store.
type Store struct {
	pool     *pgxpool.Pool
	compiler *querysql.Compiler
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewStore(pool), nil
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, compiler: querysql.NewCompiler(querysql.Postgres)}
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// FetchAll reads every matching record in a single query.
func (s *Store) FetchAll(ctx context.Context, table string, q queryir.Query) ([]appointment.Record, error) {
	if s.pool == nil {
		return nil, store.NewFetchError(table, q, errors.New("nil postgres pool"))
	}

	query, params, err := s.compiler.Compile(querysql.Select{
		Table:    table,
		Columns:  appointment.Columns,
		Expr:     textColumns,
		IDColumn: "id",
		Query:    q,
	})
	if err != nil {
		return nil, store.NewFetchError(table, q, err)
	}

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, store.NewFetchError(table, q, classify(err))
	}
	defer rows.Close()

	records := []appointment.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, store.NewFetchError(table, q, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewFetchError(table, q, classify(err))
	}
	return records, nil
}

// DeleteByIDs removes the given ids in one statement inside a transaction.
func (s *Store) DeleteByIDs(ctx context.Context, table string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if s.pool == nil {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: errors.New("nil postgres pool")}
	}
	if !queryir.ValidIdentifier(table) {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: fmt.Errorf("invalid table name %q", table)}
	}

	var deleted int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id::text = ANY($1)`, table), ids)
		if err != nil {
			return classify(err)
		}
		deleted = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: err}
	}
	return deleted, nil
}

// InsertRecords writes records, ignoring ids that already exist. Used to
// seed test databases.
func (s *Store) InsertRecords(ctx context.Context, table string, records []appointment.Record) (int64, error) {
	if !queryir.ValidIdentifier(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	var inserted int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, r := range records {
			var amount *string
			if r.PaidAmount.Valid {
				v := r.PaidAmount.Decimal.String()
				amount = &v
			}
			ct, err := tx.Exec(ctx, fmt.Sprintf(`
				INSERT INTO %s
				(id, client_id, pet_id, service_id, date, created_at, status, payment_method, paid_amount, payment_status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (id) DO NOTHING
			`, table),
				r.ID,
				r.ClientID,
				r.PetID,
				r.ServiceID,
				r.Date,
				r.CreatedAt,
				r.Status,
				r.PaymentMethod,
				amount,
				r.PaymentStatus,
			)
			if err != nil {
				return fmt.Errorf("insert record %s: %w", r.ID, err)
			}
			inserted += ct.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func scanRecord(rows pgx.Rows) (appointment.Record, error) {
	var (
		r                     appointment.Record
		date, created, status *string
		amount                *string
	)
	err := rows.Scan(
		&r.ID,
		&r.ClientID,
		&r.PetID,
		&r.ServiceID,
		&date,
		&created,
		&status,
		&r.PaymentMethod,
		&amount,
		&r.PaymentStatus,
	)
	if err != nil {
		return appointment.Record{}, fmt.Errorf("scan record: %w", err)
	}
	r.Date = appointment.Value(date)
	r.CreatedAt = appointment.Value(created)
	r.Status = appointment.Value(status)
	if amount != nil {
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return appointment.Record{}, fmt.Errorf("record %s: paid_amount %q: %w", r.ID, *amount, err)
		}
		r.PaidAmount = decimal.NewNullDecimal(d)
	}
	return r, nil
}

// AsPgError extracts a *pgconn.PgError from err.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func classify(err error) error {
	if pe, ok := AsPgError(err); ok && pe.Code == UndefinedTableCode {
		return fmt.Errorf("%w: %s", store.ErrUnknownTable, pe.Message)
	}
	return err
}
