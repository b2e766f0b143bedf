package database

import (
	"errors"
	"fmt"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into model errors.
const (
	codeUniqueViolation = "23505"
	codeForeignKey      = "23503"
	codeNotNull         = "23502"
	codeCheckViolation  = "23514"
	codeStringTooLong   = "22001"
	codeInvalidTextRepr = "22P02"
)

// MapPostgresError turns driver errors into model sentinels. Constraint
// violations keep the constraint or column name for the message; anything
// unrecognised is returned as is.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return models.ErrConflict
	case codeForeignKey, codeNotNull, codeCheckViolation, codeStringTooLong, codeInvalidTextRepr:
		if subject := constraintSubject(pgErr); subject != "" {
			return fmt.Errorf("%w: %s", models.ErrBadRequest, subject)
		}
		return models.ErrBadRequest
	}
	return err
}

func constraintSubject(pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return pgErr.ColumnName
}
