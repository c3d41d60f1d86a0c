package repository

import (
	"context"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
)

// SetRepository определяет методы для работы с сетами
type SetRepository interface {
	// ListNames возвращает имена всех сетов в порядке убывания
	ListNames(ctx context.Context) ([]string, error)
}

// PacketRepository определяет методы для работы с пакетами
type PacketRepository interface {
	// FindBySetAndNumber возвращает пакет сета по номеру или apperrors.ErrNotFound
	FindBySetAndNumber(ctx context.Context, setName string, number int) (*entity.Packet, error)
	CountBySet(ctx context.Context, setName string) (int64, error)
}
