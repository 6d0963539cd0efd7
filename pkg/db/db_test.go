package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atelierlab/devisio/internal/config"
)

func TestOpenDialector(t *testing.T) {
	cfg := config.Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "devisio",
		DBPassword: "secret",
		DBName:     "devisio",
		DBSSLMode:  "disable",
	}

	cfg.DBType = "postgres"
	dialect, err := openDialector(cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres", dialect.Name())

	cfg.DBType = "mysql"
	dialect, err = openDialector(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mysql", dialect.Name())

	cfg.DBType = "sqlite"
	dialect, err = openDialector(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", dialect.Name())

	cfg.DBType = "oracle"
	_, err = openDialector(cfg)
	require.Error(t, err)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm sentinel", err: gorm.ErrDuplicatedKey, want: true},
		{name: "wrapped gorm sentinel", err: errors.Join(errors.New("insert failed"), gorm.ErrDuplicatedKey), want: true},
		{name: "postgres", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_clients_org_id_email" (SQLSTATE 23505)`), want: true},
		{name: "mysql", err: errors.New("Error 1062 (23000): Duplicate entry 'a@b.fr' for key 'idx_clients_org_id_email'"), want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: clients.email"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}
