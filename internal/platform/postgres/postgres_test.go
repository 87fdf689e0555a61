package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/platform/config"
	"casefile/pkg/platform/sentinel"
)

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), config.PostgresConfig{})
	assert.ErrorIs(t, err, ErrMissingDSN)
}

func TestMigrate(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	t.Run("runs goose from the fs root", func(t *testing.T) {
		var gotDir string
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			gotDir = dir
			return nil
		}
		err := Migrate(context.Background(), nil, fstest.MapFS{})
		require.NoError(t, err)
		assert.Equal(t, ".", gotDir)
	})

	t.Run("wraps goose failures", func(t *testing.T) {
		boom := errors.New("boom")
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			return boom
		}
		err := Migrate(context.Background(), nil, fstest.MapFS{})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "run migrations")
	})
}

func TestWrapErr(t *testing.T) {
	assert.NoError(t, WrapErr("noop", nil))

	for _, tt := range []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"lock timeout", &pq.Error{Code: "55P03"}, true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"bad connection", driver.ErrBadConn, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"no rows", sql.ErrNoRows, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapErr("update case", tt.err)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.unavailable, errors.Is(err, sentinel.ErrUnavailable))
			assert.Contains(t, err.Error(), "update case")
		})
	}
}
