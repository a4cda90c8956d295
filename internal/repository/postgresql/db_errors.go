package postgresql

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes the repositories care about.
const (
	codeUniqueViolation = "23505"
	codeUndefinedTable  = "42P01"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func pqConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func isUniqueViolation(err error) bool { return pqCode(err) == codeUniqueViolation }

func isUndefinedTable(err error) bool { return pqCode(err) == codeUndefinedTable }
