package notifications

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/notifyrelay/pkg/pg"
)

// Migrations holds the goose migrations for the PostgreSQL schema, under MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// PostgresDB is the subset of *pgxpool.Pool used by PostgresStorage.
type PostgresDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

const (
	insertRecordQuery = `INSERT INTO notifications
		(id, type, target, label, template_name, data, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectLatestQuery = `SELECT id, type, target, label, template_name, data, status, created_at, updated_at
		FROM notifications
		WHERE target = $1 AND label = $2
		ORDER BY created_at DESC
		LIMIT 1`

	lockLatestQuery = `SELECT id, status
		FROM notifications
		WHERE target = $1 AND label = $2
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`

	updateStatusQuery = `UPDATE notifications SET status = $1, updated_at = $2 WHERE id = $3`
)

// PostgresStorage stores records in the notifications table.
type PostgresStorage struct {
	db  PostgresDB
	now func() time.Time
}

// NewPostgresStorage creates a storage on db. The schema must already be
// migrated, see Migrations.
func NewPostgresStorage(db PostgresDB) *PostgresStorage {
	return &PostgresStorage{db: db, now: time.Now}
}

func (s *PostgresStorage) Create(ctx context.Context, rec Record) error {
	rec.normalize(s.now().UTC(), uuid.NewString)
	if err := rec.validate(); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, insertRecordQuery, insertArgs(rec)...); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *PostgresStorage) UpsertStatus(ctx context.Context, target, label string, status Status, opts ...UpsertOption) error {
	if err := validateUpsert(target, status); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		id      string
		current Status
	)
	err = tx.QueryRow(ctx, lockLatestQuery, target, label).Scan(&id, &current)
	switch {
	case pg.IsNotFoundError(err):
		rec := newUpsertRecord(target, label, status, opts)
		rec.normalize(s.now().UTC(), uuid.NewString)
		if err := rec.validate(); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertRecordQuery, insertArgs(rec)...); err != nil {
			return errors.Join(ErrStorageFailure, err)
		}
	case err != nil:
		return errors.Join(ErrStorageFailure, err)
	default:
		next := current
		if current.CanTransitionTo(status) {
			next = status
		}
		if _, err := tx.Exec(ctx, updateStatusQuery, string(next), s.now().UTC(), id); err != nil {
			return errors.Join(ErrStorageFailure, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *PostgresStorage) Latest(ctx context.Context, target, label string) (Record, error) {
	var rec Record
	err := s.db.QueryRow(ctx, selectLatestQuery, target, label).Scan(
		&rec.ID, &rec.Channel, &rec.Target, &rec.Label, &rec.TemplateName,
		&rec.Data, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStorageFailure, err)
	}
	return rec, nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func insertArgs(rec Record) []any {
	return []any{
		rec.ID, string(rec.Channel), rec.Target, rec.Label, rec.TemplateName,
		rec.Data, string(rec.Status), rec.CreatedAt, rec.UpdatedAt,
	}
}
