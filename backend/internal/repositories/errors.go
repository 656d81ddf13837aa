package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStatusMismatch is returned by a conditional status update when the
	// row exists but no longer carries the expected status.
	ErrStatusMismatch = errors.New("status precondition failed")
)

const pgUniqueViolation = "23505"

// UniqueViolationError reports which column collided on insert or update.
// Field is empty when the driver does not expose it.
type UniqueViolationError struct {
	Field string
	Err   error
}

func (e *UniqueViolationError) Error() string {
	if e.Field == "" {
		return "unique constraint violated"
	}
	return "unique constraint violated on " + e.Field
}

func (e *UniqueViolationError) Unwrap() error { return e.Err }

// translateError maps driver errors onto the repository error set.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if field, ok := uniqueViolation(err); ok {
		return &UniqueViolationError{Field: field, Err: err}
	}
	return err
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fieldFromConstraint(pgErr.ConstraintName), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	// sqlite: "UNIQUE constraint failed: volunteers.cpf"
	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed: "); i >= 0 {
		col := msg[i+len("UNIQUE constraint failed: "):]
		if j := strings.IndexAny(col, ", ("); j >= 0 {
			col = col[:j]
		}
		if k := strings.LastIndex(col, "."); k >= 0 {
			col = col[k+1:]
		}
		return col, true
	}
	return "", false
}

// fieldFromConstraint turns "idx_volunteers_cpf" or "volunteers_cpf_key" into "cpf".
func fieldFromConstraint(name string) string {
	name = strings.TrimSuffix(name, "_key")
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}
