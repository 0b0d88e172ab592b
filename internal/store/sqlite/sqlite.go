// Package sqlite stores appointment snapshots in a local SQLite file.
//
// A snapshot file lets the window verifier and the planner run offline
// against a frozen copy of the remote table. The adapter implements the
// full store port, including deletes, so plans can be rehearsed locally.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/querysql"
	"github.com/roach88/apptrecon/internal/store"
)

//go:embed schema.sql
var schemaSQL string

//go:embed appointments.sql
var appointmentsSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on snapshots.table_name
const currentSchemaVersion = 1

// maxDeleteParams stays under SQLite's default bound-parameter limit.
const maxDeleteParams = 500

// Store is a SQLite-backed appointment store.
type Store struct {
	db       *sql.DB
	compiler *querysql.Compiler
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Writer = (*Store)(nil)
)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Safe to call repeatedly on the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, compiler: querysql.NewCompiler(querysql.SQLite)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureTable creates the appointment table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context, table string) error {
	if !queryir.ValidIdentifier(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	ddl := strings.ReplaceAll(appointmentsSQL, "{{table}}", table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// FetchAll returns every record in table matching q, ordered by id.
func (s *Store) FetchAll(ctx context.Context, table string, q queryir.Query) ([]appointment.Record, error) {
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, store.NewFetchError(table, q, err)
	}
	if !ok {
		return nil, store.NewFetchError(table, q, store.ErrUnknownTable)
	}

	query, params, err := s.compiler.Compile(querysql.Select{
		Table:    table,
		Columns:  appointment.Columns,
		IDColumn: "id",
		Query:    q,
	})
	if err != nil {
		return nil, store.NewFetchError(table, q, err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, store.NewFetchError(table, q, err)
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
		return nil, store.NewFetchError(table, q, err)
	}
	return records, nil
}

// DeleteByIDs removes the given ids in one transaction.
func (s *Store) DeleteByIDs(ctx context.Context, table string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: err}
	}
	defer tx.Rollback()

	var total int64
	for start := 0; start < len(ids); start += maxDeleteParams {
		end := min(start+maxDeleteParams, len(ids))
		chunk := ids[start:end]

		query, err := s.compiler.CompileDeleteIn(table, "id", len(chunk))
		if err != nil {
			return 0, &store.DeleteError{Table: table, IDs: ids, Err: err}
		}
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, &store.DeleteError{Table: table, IDs: ids, Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &store.DeleteError{Table: table, IDs: ids, Err: err}
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, &store.DeleteError{Table: table, IDs: ids, Err: err}
	}
	return total, nil
}

// InsertRecords writes records into table, creating it if needed.
// Uses ON CONFLICT(id) DO NOTHING, so re-importing a snapshot is a no-op.
// Returns the number of rows actually inserted.
func (s *Store) InsertRecords(ctx context.Context, table string, records []appointment.Record) (int64, error) {
	if err := s.EnsureTable(ctx, table); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(id, client_id, pet_id, service_id, date, created_at, status, payment_method, paid_amount, payment_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, table))
	if err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range records {
		res, err := stmt.ExecContext(ctx,
			r.ID,
			r.ClientID,
			r.PetID,
			r.ServiceID,
			r.Date,
			r.CreatedAt,
			r.Status,
			r.PaymentMethod,
			r.PaidAmount,
			r.PaymentStatus,
		)
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", r.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", r.ID, err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	return inserted, nil
}

// SnapshotInfo describes one recorded snapshot import.
type SnapshotInfo struct {
	ID          string
	Table       string
	Source      string
	FetchedAt   time.Time
	RecordCount int
}

// RecordSnapshot notes that a snapshot of table was imported.
func (s *Store) RecordSnapshot(ctx context.Context, info SnapshotInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, table_name, source, fetched_at, record_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		info.ID,
		info.Table,
		info.Source,
		info.FetchedAt.UTC().Format(time.RFC3339Nano),
		info.RecordCount,
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot recorded for table.
// Returns false when none exists.
func (s *Store) LatestSnapshot(ctx context.Context, table string) (SnapshotInfo, bool, error) {
	var (
		info      SnapshotInfo
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, table_name, source, fetched_at, record_count
		FROM snapshots
		WHERE table_name = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`, table).Scan(&info.ID, &info.Table, &info.Source, &fetchedAt, &info.RecordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotInfo{}, false, nil
	}
	if err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	info.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("latest snapshot: bad fetched_at %q: %w", fetchedAt, err)
	}
	return info, true, nil
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		table,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanRecord(rows *sql.Rows) (appointment.Record, error) {
	var (
		r                            appointment.Record
		client, pet, service         sql.NullString
		date, created, status        sql.NullString
		paymentMethod, paymentStatus sql.NullString
	)
	err := rows.Scan(
		&r.ID,
		&client,
		&pet,
		&service,
		&date,
		&created,
		&status,
		&paymentMethod,
		&r.PaidAmount,
		&paymentStatus,
	)
	if err != nil {
		return appointment.Record{}, fmt.Errorf("scan record: %w", err)
	}
	r.ClientID = nullable(client)
	r.PetID = nullable(pet)
	r.ServiceID = nullable(service)
	r.Date = date.String
	r.CreatedAt = created.String
	r.Status = status.String
	r.PaymentMethod = nullable(paymentMethod)
	r.PaymentStatus = nullable(paymentStatus)
	return r, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the metadata tables and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes snapshots by table so LatestSnapshot stays cheap.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_snapshots_table
		ON snapshots(table_name, fetched_at)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
