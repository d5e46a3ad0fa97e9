package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/model"
	"docportal/internal/repository"
)

var userColumns = []string{"id", "username", "email", "password_hash", "role", "created_at"}

func TestUserPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	u := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", Role: model.RoleUser, CreatedAt: now}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", "h", "USER", now).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(3), "alice", "alice@example.com", "h", "USER", now))

	out, err := repo.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.ID)
	assert.Equal(t, model.RoleUser, out.Role)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = repo.Create(ctx, u)
	assert.ErrorIs(t, err, repository.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_FindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users").WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "admin", "admin@example.com", "h", "ADMIN", now))
	u, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	mock.ExpectQuery("FROM users").WithArgs("ghost").WillReturnRows(sqlmock.NewRows(userColumns))
	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_ExistsAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery(`WHERE username = \$1`).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`lower\(email\) = lower\(\$1\)`).WithArgs("A@B.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	ok, err = repo.ExistsByEmail(ctx, "A@B.com")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
