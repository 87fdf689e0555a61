package cases

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

const caseColumns = `id, detective, weapon, description, suspect, victims, created_at, updated_at`

// PostgresStore persists cases in PostgreSQL. The victim set is a uuid[] column.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed case store.
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

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6::uuid[], $7, $8)`,
		uuid.UUID(c.ID), c.Detective, c.Weapon, c.Description, c.Suspect,
		pq.Array(id.VictimIDStrings(c.Victims)), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("create case: %w", sentinel.ErrConflict)
		}
		return postgres.WrapErr("create case", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`+forUpdate(ctx), uuid.UUID(caseID))
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, postgres.WrapErr("find case by id", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, caseIDs []id.CaseID) ([]*models.Case, error) {
	if len(caseIDs) == 0 {
		return []*models.Case{}, nil
	}
	return s.query(ctx, "find cases by ids",
		`SELECT `+caseColumns+` FROM cases WHERE id = ANY($1::uuid[]) ORDER BY seq`,
		pq.Array(id.CaseIDStrings(caseIDs)))
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Case, error) {
	return s.query(ctx, "list cases", `SELECT `+caseColumns+` FROM cases ORDER BY seq`)
}

func (s *PostgresStore) Update(ctx context.Context, c *models.Case) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE cases
		SET detective = $2, weapon = $3, description = $4, suspect = $5, victims = $6::uuid[], updated_at = $7
		WHERE id = $1`,
		uuid.UUID(c.ID), c.Detective, c.Weapon, c.Description, c.Suspect,
		pq.Array(id.VictimIDStrings(c.Victims)), c.UpdatedAt,
	)
	if err != nil {
		return postgres.WrapErr("update case", err)
	}
	return requireAffected(res, "update case")
}

func (s *PostgresStore) Delete(ctx context.Context, caseID id.CaseID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, uuid.UUID(caseID))
	if err != nil {
		return postgres.WrapErr("delete case", err)
	}
	return requireAffected(res, "delete case")
}

// AddVictim appends victimID unless the set already holds it. The row is
// always touched so a missing case still reports zero rows.
func (s *PostgresStore) AddVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE cases
		SET victims = CASE WHEN $2::uuid = ANY(victims) THEN victims ELSE array_append(victims, $2::uuid) END,
		    updated_at = CASE WHEN $2::uuid = ANY(victims) THEN updated_at ELSE $3 END
		WHERE id = $1`,
		uuid.UUID(caseID), uuid.UUID(victimID), now)
	if err != nil {
		return postgres.WrapErr("add case victim", err)
	}
	return requireAffected(res, "add case victim")
}

func (s *PostgresStore) RemoveVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE cases
		SET victims = array_remove(victims, $2::uuid),
		    updated_at = CASE WHEN $2::uuid = ANY(victims) THEN $3 ELSE updated_at END
		WHERE id = $1`,
		uuid.UUID(caseID), uuid.UUID(victimID), now)
	if err != nil {
		return postgres.WrapErr("remove case victim", err)
	}
	return requireAffected(res, "remove case victim")
}

func (s *PostgresStore) query(ctx context.Context, action, query string, args ...any) ([]*models.Case, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.WrapErr(action, err)
	}
	defer rows.Close()

	out := []*models.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, postgres.WrapErr(action, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.WrapErr(action, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		caseID  uuid.UUID
		victims []string
		c       models.Case
	)
	if err := row.Scan(&caseID, &c.Detective, &c.Weapon, &c.Description, &c.Suspect, pq.Array(&victims), &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.CaseID(caseID)
	c.Victims = make([]id.VictimID, 0, len(victims))
	for _, raw := range victims {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse victim reference %q: %w", raw, err)
		}
		c.Victims = append(c.Victims, id.VictimID(u))
	}
	return &c, nil
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
