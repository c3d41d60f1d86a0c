package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
)

// QuestionCollection определяет операции чтения над одной коллекцией вопросов
type QuestionCollection[T any] interface {
	// Find выполняет конвейер выборки
	Find(ctx context.Context, p query.Pipeline) ([]T, error)
	// Count возвращает количество документов, удовлетворяющих фильтру
	Count(ctx context.Context, f query.Filter) (int64, error)
	// FindByID возвращает документ по ID или apperrors.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID, includeReports bool) (*T, error)
}

// QuestionWriter определяет операции обновления по предикату
type QuestionWriter interface {
	UpdateOne(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error)
	UpdateMany(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error)
}

// QuestionStore: единое хранилище вопросов с двумя типизированными подколлекциями
// (тоссапы и бонусы), разделяющими общее пространство ID.
type QuestionStore interface {
	Tossups() QuestionCollection[entity.Tossup]
	Bonuses() QuestionCollection[entity.Bonus]

	// Writer возвращает writer коллекции вопросов указанного типа
	Writer(kind entity.QuestionKind) (QuestionWriter, error)
	// Stats возвращает writer денормализованной статистики пользователей для указанного типа
	Stats(kind entity.QuestionKind) (QuestionWriter, error)

	// WithinTx выполняет fn атомарно. Хранилище, переданное в fn, привязано к транзакции.
	WithinTx(ctx context.Context, fn func(tx QuestionStore) error) error
}
