package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
)

// SetRepo реализует repository.SetRepository
type SetRepo struct {
	db *gorm.DB
}

// NewSetRepo создает новый репозиторий сетов
func NewSetRepo(db *gorm.DB) *SetRepo {
	return &SetRepo{db: db}
}

// ListNames возвращает имена всех сетов в порядке убывания
func (r *SetRepo) ListNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&entity.Set{}).Order("name DESC").Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// PacketRepo реализует repository.PacketRepository
type PacketRepo struct {
	db *gorm.DB
}

// NewPacketRepo создает новый репозиторий пакетов
func NewPacketRepo(db *gorm.DB) *PacketRepo {
	return &PacketRepo{db: db}
}

// FindBySetAndNumber возвращает пакет сета по номеру
func (r *PacketRepo) FindBySetAndNumber(ctx context.Context, setName string, number int) (*entity.Packet, error) {
	var packet entity.Packet
	err := r.db.WithContext(ctx).
		Where("set_name = ? AND number = ?", setName, number).
		First(&packet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &packet, nil
}

// CountBySet возвращает число пакетов в сете
func (r *PacketRepo) CountBySet(ctx context.Context, setName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Packet{}).Where("set_name = ?", setName).Count(&count).Error
	return count, err
}
