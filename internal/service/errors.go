package service

import (
	"fmt"

	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
)

// Ошибки модерации. Все они оборачивают ErrValidation и отдаются клиенту как 400.
var (
	ErrUnknownSubcategory = fmt.Errorf("%w: unknown subcategory", apperrors.ErrValidation)
	ErrEmptyReason        = fmt.Errorf("%w: report reason is required", apperrors.ErrValidation)
)
