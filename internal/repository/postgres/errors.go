package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
)

// Коды ошибок PostgreSQL, которые имеют смысл для вызывающего кода
const (
	codeInvalidRegex         = "2201B"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUndefinedObject      = "42704"
)

// pgCode извлекает SQLSTATE для pgconn и lib/pq драйверов
func pgCode(err error) string {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// mapError переводит ошибки драйвера в ошибки приложения
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeInvalidRegex:
		return fmt.Errorf("%w: invalid regular expression: %v", apperrors.ErrValidation, err)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
	default:
		return err
	}
}
