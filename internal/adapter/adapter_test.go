package adapter

import (
	"context"
	"log/slog"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.True(t, IsRegistered("duckdb"))
	assert.True(t, IsRegistered("postgres"))
	assert.True(t, IsRegistered("sqlite"))
	assert.False(t, IsRegistered("oracle"))

	names := List()
	assert.Contains(t, names, "duckdb")
	assert.Contains(t, names, "postgres")
	assert.Contains(t, names, "sqlite")
}

func TestNewUnknownAdapter(t *testing.T) {
	_, err := New(Config{Type: "oracle"}, slog.Default())
	require.Error(t, err)

	var unknownErr *UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "oracle", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "duckdb")
	assert.Contains(t, err.Error(), "unknown adapter type")
}

func TestNewReturnsDialect(t *testing.T) {
	tests := []struct {
		adapterType string
		dialect     string
	}{
		{"duckdb", "duckdb"},
		{"postgres", "postgres"},
		{"sqlite", "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.adapterType, func(t *testing.T) {
			a, err := New(Config{Type: tt.adapterType}, slog.Default())
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, a.DialectName())
		})
	}
}

func TestQueryRowMap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	base := &BaseSQLAdapter{DB: db, Logger: slog.Default()}

	rows := sqlmock.NewRows([]string{"rule_name", "total_rows", "failed_rows", "status"}).
		AddRow("age_range", int64(100), int64(0), "PASS")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	row, err := base.QueryRowMap(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "age_range", row["rule_name"])
	assert.Equal(t, int64(100), row["total_rows"])
	assert.Equal(t, int64(0), row["failed_rows"])
	assert.Equal(t, "PASS", row["status"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRowMapEmptyResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	base := &BaseSQLAdapter{DB: db, Logger: slog.Default()}

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"rule_name"}))

	_, err = base.QueryRowMap(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, ErrEmptyResult)
}

func TestQueryRowMapByteConversion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	base := &BaseSQLAdapter{DB: db, Logger: slog.Default()}

	rows := sqlmock.NewRows([]string{"status"}).AddRow([]byte("FAIL"))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	row, err := base.QueryRowMap(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "FAIL", row["status"])
}

func TestBaseAdapterNotConnected(t *testing.T) {
	base := &BaseSQLAdapter{}

	assert.False(t, base.IsConnected())
	assert.NoError(t, base.Close())

	err := base.Exec(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "not established")

	_, err = base.QueryRowMap(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "not established")
}

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defSchema  string
		wantSchema string
		wantName   string
	}{
		{"qualified", "analytics.users", "main", "analytics", "users"},
		{"unqualified", "users", "main", "main", "users"},
		{"empty default", "users", "", "", "users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, name := ParseQualifiedName(tt.input, tt.defSchema)
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "defaults",
			cfg:  Config{Database: "warehouse"},
			want: "host=localhost port=5432 dbname=warehouse sslmode=prefer",
		},
		{
			name: "full config",
			cfg: Config{
				Host:     "db.internal",
				Port:     5433,
				Database: "warehouse",
				Username: "vigil",
				Password: "secret",
				Options:  map[string]string{"sslmode": "require"},
			},
			want: "host=db.internal port=5433 dbname=warehouse sslmode=require user=vigil password=secret",
		},
		{
			name: "user without password",
			cfg:  Config{Host: "localhost", Database: "warehouse", Username: "vigil"},
			want: "host=localhost port=5432 dbname=warehouse sslmode=prefer user=vigil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildPostgresDSN(tt.cfg))
		})
	}
}
