package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
)

func TestMapError(t *testing.T) {
	plain := errors.New("connection reset")

	testCases := []struct {
		name string
		err  error
		want error
	}{
		{"неверный regex (pgx)", fmt.Errorf("find: %w", &pgconn.PgError{Code: codeInvalidRegex}), apperrors.ErrValidation},
		{"неверный regex (lib/pq)", &pq.Error{Code: codeInvalidRegex}, apperrors.ErrValidation},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, apperrors.ErrConflict},
		{"serialization failure", &pq.Error{Code: codeSerializationFailure}, apperrors.ErrConflict},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tc.err), tc.want)
		})
	}

	assert.NoError(t, mapError(nil))
	assert.Same(t, plain, mapError(plain), "прочие ошибки возвращаются без изменений")
}
