package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventlisting/internal/domain"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for a unique index violation.
const uniqueViolation = "23505"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// mapWriteError reclassifies uniqueness violations as domain.ErrConflict and
// passes every other error through unchanged.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
	}
	return err
}
