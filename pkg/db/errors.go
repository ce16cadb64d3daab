package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. When constraintName is provided, only violations of
// that constraint match.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if code, constraint, ok := pgCode(err); ok {
		if code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || constraint == constraintName || strings.Contains(err.Error(), constraintName)
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err references a row that does not
// exist, or no longer exists, in the parent table.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, _, ok := pgCode(err); ok {
		return code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsTransientConflict reports whether err is a serialization failure, a
// deadlock or a locked sqlite database. Callers may retry the whole unit of work.
func IsTransientConflict(err error) bool {
	if err == nil {
		return false
	}
	if code, _, ok := pgCode(err); ok {
		return code == pgSerializationFailure || code == pgDeadlockDetected
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

func pgCode(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}
