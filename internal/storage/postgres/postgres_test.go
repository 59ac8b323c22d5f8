package postgres

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ami2490/armeria/pkg/database"
)

func newTestFixture(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, database.QueryTracer{}), mock
}

func TestStore_Get_Found(t *testing.T) {
	s, mock := newTestFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs("cart:sess-1").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`[{"productId":"a"}]`))

	v, ok, err := s.Get(context.Background(), "cart:sess-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"productId":"a"}]`, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_Missing(t *testing.T) {
	s, mock := newTestFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs("wishlist").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := s.Get(context.Background(), "wishlist")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_Error(t *testing.T) {
	s, mock := newTestFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectValue)).
		WithArgs("cart").
		WillReturnError(errors.New("connection reset"))

	_, _, err := s.Get(context.Background(), "cart")
	assert.ErrorContains(t, err, "select kv cart")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Set(t *testing.T) {
	s, mock := newTestFixture(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertValue)).
		WithArgs("cart", "[]").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Set(context.Background(), "cart", "[]"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Set_Error(t *testing.T) {
	s, mock := newTestFixture(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertValue)).
		WithArgs("cart", "[]").
		WillReturnError(errors.New("read-only transaction"))

	err := s.Set(context.Background(), "cart", "[]")
	assert.ErrorContains(t, err, "upsert kv cart")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	s, _ := newTestFixture(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(Migrations(), "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_kv_store.up.sql"}, names)

	body, err := fs.ReadFile(Migrations(), names[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS kv_store")
}
