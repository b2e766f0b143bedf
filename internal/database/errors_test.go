package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	other := errors.New("connection reset")
	serialization := &pgconn.PgError{Code: "40001"}

	tests := []struct {
		name    string
		in      error
		want    error
		message string
	}{
		{"nil", nil, nil, ""},
		{"no rows", pgx.ErrNoRows, models.ErrNotFound, ""},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), models.ErrNotFound, ""},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}, models.ErrConflict, "resource already exists"},
		{"not null violation", &pgconn.PgError{Code: "23502", ColumnName: "virtual_clusters"}, models.ErrBadRequest, "bad request: virtual_clusters"},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "users_username_check"}, models.ErrBadRequest, "bad request: users_username_check"},
		{"invalid text without subject", &pgconn.PgError{Code: "22P02"}, models.ErrBadRequest, "bad request"},
		{"other pg error", serialization, serialization, ""},
		{"passthrough", other, other, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPostgresError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			if tt.message != "" {
				assert.EqualError(t, got, tt.message)
			}
		})
	}
}
