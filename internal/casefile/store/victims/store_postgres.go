package victims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"casefile/internal/casefile/models"
	"casefile/internal/platform/postgres"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	txcontext "casefile/pkg/platform/tx"
)

const victimColumns = `id, name, age, family, murder_method, case_id, created_at, updated_at`

// PostgresStore persists victims in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed victim store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// forUpdate row-locks reads made inside a transaction. The service only reads
// there before rewriting the same rows, and a concurrent set update must wait
// rather than be overwritten.
func forUpdate(ctx context.Context) string {
	if _, ok := txcontext.From(ctx); ok {
		return " FOR UPDATE"
	}
	return ""
}

func (s *PostgresStore) Create(ctx context.Context, victim *models.Victim) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO victims (`+victimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(victim.ID), victim.Name, victim.Age, victim.Family, victim.MurderMethod,
		nullCaseID(victim.CaseID), victim.CreatedAt, victim.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("create victim: %w", sentinel.ErrConflict)
		}
		return postgres.WrapErr("create victim", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, victimID id.VictimID) (*models.Victim, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+victimColumns+` FROM victims WHERE id = $1`+forUpdate(ctx), uuid.UUID(victimID))
	v, err := scanVictim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, postgres.WrapErr("find victim by id", err)
	}
	return v, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, victimIDs []id.VictimID) ([]*models.Victim, error) {
	if len(victimIDs) == 0 {
		return []*models.Victim{}, nil
	}
	return s.query(ctx, "find victims by ids",
		`SELECT `+victimColumns+` FROM victims WHERE id = ANY($1::uuid[]) ORDER BY seq`+forUpdate(ctx),
		pq.Array(id.VictimIDStrings(victimIDs)))
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Victim, error) {
	return s.query(ctx, "list victims", `SELECT `+victimColumns+` FROM victims ORDER BY seq`)
}

func (s *PostgresStore) FindByNameAndFamily(ctx context.Context, name, family string) (*models.Victim, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+victimColumns+` FROM victims WHERE name = $1 AND family = $2 ORDER BY seq LIMIT 1`+forUpdate(ctx),
		name, family)
	v, err := scanVictim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, postgres.WrapErr("find victim by name and family", err)
	}
	return v, nil
}

func (s *PostgresStore) Update(ctx context.Context, victim *models.Victim) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE victims
		SET name = $2, age = $3, family = $4, murder_method = $5, case_id = $6, updated_at = $7
		WHERE id = $1`,
		uuid.UUID(victim.ID), victim.Name, victim.Age, victim.Family, victim.MurderMethod,
		nullCaseID(victim.CaseID), victim.UpdatedAt,
	)
	if err != nil {
		return postgres.WrapErr("update victim", err)
	}
	return requireAffected(res, "update victim")
}

func (s *PostgresStore) Delete(ctx context.Context, victimID id.VictimID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM victims WHERE id = $1`, uuid.UUID(victimID))
	if err != nil {
		return postgres.WrapErr("delete victim", err)
	}
	return requireAffected(res, "delete victim")
}

func (s *PostgresStore) SetCase(ctx context.Context, victimIDs []id.VictimID, caseID id.CaseID, now time.Time) error {
	if len(victimIDs) == 0 {
		return nil
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE victims SET case_id = $2, updated_at = $3 WHERE id = ANY($1::uuid[])`,
		pq.Array(id.VictimIDStrings(victimIDs)), uuid.UUID(caseID), now)
	if err != nil {
		return postgres.WrapErr("set victim case", err)
	}
	return nil
}

func (s *PostgresStore) ClearCase(ctx context.Context, victimIDs []id.VictimID, now time.Time) error {
	if len(victimIDs) == 0 {
		return nil
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE victims SET case_id = NULL, updated_at = $2 WHERE id = ANY($1::uuid[])`,
		pq.Array(id.VictimIDStrings(victimIDs)), now)
	if err != nil {
		return postgres.WrapErr("clear victim case", err)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, action, query string, args ...any) ([]*models.Victim, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.WrapErr(action, err)
	}
	defer rows.Close()

	out := []*models.Victim{}
	for rows.Next() {
		v, err := scanVictim(rows)
		if err != nil {
			return nil, postgres.WrapErr(action, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.WrapErr(action, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVictim(row rowScanner) (*models.Victim, error) {
	var (
		victimID uuid.UUID
		caseID   uuid.NullUUID
		v        models.Victim
	)
	if err := row.Scan(&victimID, &v.Name, &v.Age, &v.Family, &v.MurderMethod, &caseID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.ID = id.VictimID(victimID)
	if caseID.Valid {
		cid := id.CaseID(caseID.UUID)
		v.CaseID = &cid
	}
	return &v, nil
}

func nullCaseID(caseID *id.CaseID) uuid.NullUUID {
	if caseID == nil || caseID.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*caseID), Valid: true}
}

func requireAffected(res sql.Result, action string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.WrapErr(action, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
