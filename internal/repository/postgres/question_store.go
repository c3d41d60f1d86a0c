package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
	"github.com/yourusername/questionbank-api/internal/domain/repository"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
)

// Случайная выборка по всей таблице берется из TABLESAMPLE с запасом,
// затем перемешивается и обрезается
const (
	sampleOversample = 3
	minSampleRows    = 100
)

// table: коллекция документов одного типа в таблице PostgreSQL
type table[T any] struct {
	db   *gorm.DB
	tr   translator
	name string
}

func newTable[T any](db *gorm.DB, tr translator) *table[T] {
	var zero T
	name := ""
	if tb, ok := any(zero).(interface{ TableName() string }); ok {
		name = tb.TableName()
	}
	return &table[T]{db: db, tr: tr, name: name}
}

func (t *table[T]) scoped(ctx context.Context, f query.Filter) (*gorm.DB, error) {
	db := t.db.WithContext(ctx).Model(new(T))
	sql, args, err := t.tr.where(f)
	if err != nil {
		return nil, err
	}
	if sql != "" {
		db = db.Where(sql, args...)
	}
	return db, nil
}

// Find выполняет конвейер выборки
func (t *table[T]) Find(ctx context.Context, p query.Pipeline) ([]T, error) {
	if p.Sampled() && p.Match.IsEmpty() && t.name != "" {
		out, err := t.find(t.tableSample(t.db.WithContext(ctx).Model(new(T)), p.SampleSize), p)
		if pgCode(err) != codeUndefinedObject {
			return out, mapError(err)
		}
		// Нет расширения tsm_system_rows: сортируем всю таблицу
	}

	db, err := t.scoped(ctx, p.Match)
	if err != nil {
		return nil, err
	}

	if p.Sampled() {
		db = db.Order("RANDOM()").Limit(p.SampleSize)
	} else if len(p.Sort) > 0 {
		cols, err := t.tr.orderBy(p.Sort)
		if err != nil {
			return nil, err
		}
		db = db.Order(clause.OrderBy{Columns: cols})
	}

	out, err := t.find(db, p)
	return out, mapError(err)
}

// tableSample читает случайные страницы таблицы вместо полной сортировки
func (t *table[T]) tableSample(db *gorm.DB, size int) *gorm.DB {
	rows := max(size*sampleOversample, minSampleRows)
	from := clause.Table{Name: fmt.Sprintf("%s TABLESAMPLE SYSTEM_ROWS(%d)", t.name, rows), Raw: true}
	return db.Clauses(clause.From{Tables: []clause.Table{from}}).
		Order("RANDOM()").
		Limit(size)
}

func (t *table[T]) find(db *gorm.DB, p query.Pipeline) ([]T, error) {
	if p.Skip > 0 {
		db = db.Offset(p.Skip)
	}
	if p.Limit > 0 && (!p.Sampled() || p.Limit < p.SampleSize) {
		db = db.Limit(p.Limit)
	}
	if !p.IncludeReports {
		db = db.Omit("reports")
	}

	out := make([]T, 0)
	if err := db.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Count возвращает количество строк, удовлетворяющих фильтру
func (t *table[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	db, err := t.scoped(ctx, f)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Count(&count).Error
	return count, mapError(err)
}

// FindByID возвращает документ по ID
func (t *table[T]) FindByID(ctx context.Context, id uuid.UUID, includeReports bool) (*T, error) {
	db := t.db.WithContext(ctx)
	if !includeReports {
		db = db.Omit("reports")
	}
	var doc T
	err := db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// UpdateOne обновляет одну подходящую строку
func (t *table[T]) UpdateOne(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error) {
	db, err := t.scoped(ctx, f)
	if err != nil {
		return query.UpdateResult{}, err
	}
	// UPDATE в PostgreSQL не поддерживает LIMIT, поэтому строка выбирается подзапросом
	target := db.Select("id").Limit(1)
	return t.apply(t.db.WithContext(ctx).Model(new(T)).Where("id IN (?)", target), u)
}

// UpdateMany обновляет все подходящие строки
func (t *table[T]) UpdateMany(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error) {
	db, err := t.scoped(ctx, f)
	if err != nil {
		return query.UpdateResult{}, err
	}
	if f.IsEmpty() {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	return t.apply(db, u)
}

func (t *table[T]) apply(db *gorm.DB, u query.Update) (query.UpdateResult, error) {
	if u.IsEmpty() {
		return query.UpdateResult{}, nil
	}
	values, err := t.tr.assignments(u)
	if err != nil {
		return query.UpdateResult{}, err
	}
	// UpdateColumns не трогает updated_at: время изменения задается вызывающим кодом
	res := db.UpdateColumns(values)
	if res.Error != nil {
		return query.UpdateResult{}, mapError(res.Error)
	}
	// PostgreSQL считает все затронутые строки, даже если значения не изменились
	return query.UpdateResult{Matched: res.RowsAffected, Modified: res.RowsAffected}, nil
}

// QuestionStore реализует repository.QuestionStore
type QuestionStore struct {
	db          *gorm.DB
	tossups     *table[entity.Tossup]
	bonuses     *table[entity.Bonus]
	tossupStats *table[entity.TossupStat]
	bonusStats  *table[entity.BonusStat]
}

var _ repository.QuestionStore = (*QuestionStore)(nil)

// NewQuestionStore создает новое хранилище вопросов
func NewQuestionStore(db *gorm.DB) *QuestionStore {
	questions := translator{columns: questionColumns}
	stats := translator{columns: statColumns}
	return &QuestionStore{
		db:          db,
		tossups:     newTable[entity.Tossup](db, questions),
		bonuses:     newTable[entity.Bonus](db, questions),
		tossupStats: newTable[entity.TossupStat](db, stats),
		bonusStats:  newTable[entity.BonusStat](db, stats),
	}
}

// Tossups возвращает коллекцию тоссапов
func (s *QuestionStore) Tossups() repository.QuestionCollection[entity.Tossup] {
	return s.tossups
}

// Bonuses возвращает коллекцию бонусов
func (s *QuestionStore) Bonuses() repository.QuestionCollection[entity.Bonus] {
	return s.bonuses
}

// Writer возвращает writer таблицы вопросов
func (s *QuestionStore) Writer(kind entity.QuestionKind) (repository.QuestionWriter, error) {
	switch kind {
	case entity.KindTossup:
		return s.tossups, nil
	case entity.KindBonus:
		return s.bonuses, nil
	}
	return nil, fmt.Errorf("%w: unknown question kind %q", apperrors.ErrValidation, kind)
}

// Stats возвращает writer таблицы статистики
func (s *QuestionStore) Stats(kind entity.QuestionKind) (repository.QuestionWriter, error) {
	switch kind {
	case entity.KindTossup:
		return s.tossupStats, nil
	case entity.KindBonus:
		return s.bonusStats, nil
	}
	return nil, fmt.Errorf("%w: unknown question kind %q", apperrors.ErrValidation, kind)
}

// WithinTx выполняет fn в транзакции БД
func (s *QuestionStore) WithinTx(ctx context.Context, fn func(tx repository.QuestionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewQuestionStore(tx))
	})
}
