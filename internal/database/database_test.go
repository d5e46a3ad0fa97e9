package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/config"
)

func validDBConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:               "db",
		Port:               "5432",
		User:               "docs",
		Password:           "s3cr3t",
		Name:               "docportal",
		SSLMode:            "disable",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.DatabaseConfig)
		want    string
		wantErr string
	}{
		{
			name: "full config",
			want: "postgres://docs:s3cr3t@db:5432/docportal?application_name=docportal-api&sslmode=disable",
		},
		{
			name:   "no password",
			mutate: func(c *config.DatabaseConfig) { c.Password = "" },
			want:   "postgres://docs@db:5432/docportal?application_name=docportal-api&sslmode=disable",
		},
		{
			name:   "no sslmode",
			mutate: func(c *config.DatabaseConfig) { c.SSLMode = "" },
			want:   "postgres://docs:s3cr3t@db:5432/docportal?application_name=docportal-api",
		},
		{
			name:   "password is escaped",
			mutate: func(c *config.DatabaseConfig) { c.Password = "p@ss/word" },
			want:   "postgres://docs:p%40ss%2Fword@db:5432/docportal?application_name=docportal-api&sslmode=disable",
		},
		{
			name:    "missing host",
			mutate:  func(c *config.DatabaseConfig) { c.Host = "" },
			wantErr: "missing DB_HOST",
		},
		{
			name:    "missing user and name",
			mutate:  func(c *config.DatabaseConfig) { c.User, c.Name = "", "" },
			wantErr: "missing DB_USER, DB_NAME",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validDBConfig()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			got, err := BuildPostgresDSN(c)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// stubOpen makes NewPostgres hand out db instead of dialing.
func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		assert.Contains(t, dataSourceName, "application_name=docportal-api")
		return db, err
	}
	t.Cleanup(func() { sqlOpen = orig })
}

func TestNewPostgres(t *testing.T) {
	t.Run("pings and applies pool settings", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)
		mock.ExpectPing()

		got, err := NewPostgres(context.Background(), validDBConfig())
		require.NoError(t, err)
		assert.Same(t, db, got)
		assert.Equal(t, 10, got.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping failure closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectClose()

		got, err := NewPostgres(context.Background(), validDBConfig())
		assert.ErrorContains(t, err, "db ping")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open failure", func(t *testing.T) {
		stubOpen(t, nil, errors.New("unknown driver"))

		got, err := NewPostgres(context.Background(), validDBConfig())
		assert.ErrorContains(t, err, "sql open")
		assert.Nil(t, got)
	})

	t.Run("invalid config never opens", func(t *testing.T) {
		orig := sqlOpen
		sqlOpen = func(string, string) (*sql.DB, error) {
			t.Fatal("sqlOpen must not be called")
			return nil, nil
		}
		defer func() { sqlOpen = orig }()

		c := validDBConfig()
		c.Host = ""
		_, err := NewPostgres(context.Background(), c)
		assert.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, Ping(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
