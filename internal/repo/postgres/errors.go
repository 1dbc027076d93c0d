package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation  = "23505"
	codeInvalidTextInput = "22P02"
)

func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// isInvalidInput covers ids that are not valid uuid text.
func isInvalidInput(err error) bool {
	return hasCode(err, codeInvalidTextInput)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == code {
		return true
	}
	return false
}
