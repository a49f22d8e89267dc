package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes recognized by ErrorMap.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// ErrorMap names the domain errors a store reports in place of driver errors.
// A nil field leaves that class of error unmapped.
type ErrorMap struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates sql.ErrNoRows, unique violations, and check violations
// into the configured domain errors. Other errors are returned unchanged.
func (m ErrorMap) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == codeUniqueViolation && m.Duplicate != nil:
		return m.Duplicate
	case pgErr.Code == codeCheckViolation && m.Invalid != nil:
		if pgErr.ConstraintName == "" {
			return m.Invalid
		}
		return fmt.Errorf("%w: %s", m.Invalid, pgErr.ConstraintName)
	}

	return err
}
