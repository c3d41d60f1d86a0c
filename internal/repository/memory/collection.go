package memory

import (
	"context"
	"math/rand/v2"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
)

// rwLocker: блокировка состояния хранилища
type rwLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// heldLock используется внутри транзакции, когда хранилище уже заблокировано
type heldLock struct{}

func (heldLock) Lock() {}
func (heldLock) Unlock() {}
func (heldLock) RLock() {}
func (heldLock) RUnlock() {}

// collection: коллекция документов одного типа поверх среза в общем состоянии хранилища
type collection[T any] struct {
	mu    rwLocker
	items *[]T
	match matcher[T]
	apply mutator[T]
	// meta возвращает общие поля вопроса; nil для записей статистики
	meta func(doc *T) *entity.QuestionMeta
}

// Find выполняет конвейер: фильтр, затем сортировка или случайная выборка, затем окно
func (c *collection[T]) Find(ctx context.Context, p query.Pipeline) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	out := make([]T, 0)
	seen := 0
	for i := range *c.items {
		doc := &(*c.items)[i]
		ok, err := c.match.matches(doc, p.Match)
		if err != nil {
			c.mu.RUnlock()
			return nil, err
		}
		if !ok {
			continue
		}
		if !p.Sampled() {
			out = append(out, *doc)
			continue
		}
		// Выборка резервуаром: каждый подходящий документ попадает в выборку с равной вероятностью
		seen++
		if len(out) < p.SampleSize {
			out = append(out, *doc)
		} else if j := rand.IntN(seen); j < p.SampleSize {
			out[j] = *doc
		}
	}
	c.mu.RUnlock()

	if p.Sampled() {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	} else if len(p.Sort) > 0 {
		slices.SortStableFunc(out, func(a, b T) int {
			for _, key := range p.Sort {
				av, _ := c.match.get(&a, key.Field)
				bv, _ := c.match.get(&b, key.Field)
				cmp := compareValues(av, bv)
				if key.Desc {
					cmp = -cmp
				}
				if cmp != 0 {
					return cmp
				}
			}
			return 0
		})
	}

	out = window(out, p.Skip, p.Limit)

	if !p.IncludeReports && c.meta != nil {
		for i := range out {
			c.meta(&out[i]).Reports = nil
		}
	}
	return out, nil
}

func window[T any](items []T, skip, limit int) []T {
	if skip > 0 {
		if skip >= len(items) {
			return items[:0]
		}
		items = items[skip:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Count возвращает число документов, удовлетворяющих фильтру
func (c *collection[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for i := range *c.items {
		ok, err := c.match.matches(&(*c.items)[i], f)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// FindByID возвращает копию документа по ID
func (c *collection[T]) FindByID(ctx context.Context, id uuid.UUID, includeReports bool) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range *c.items {
		doc := (*c.items)[i]
		if m := c.meta(&doc); m.ID == id {
			if !includeReports {
				m.Reports = nil
			}
			return &doc, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// UpdateOne обновляет первый подходящий документ
func (c *collection[T]) UpdateOne(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error) {
	return c.update(ctx, f, u, false)
}

// UpdateMany обновляет все подходящие документы
func (c *collection[T]) UpdateMany(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error) {
	return c.update(ctx, f, u, true)
}

func (c *collection[T]) update(ctx context.Context, f query.Filter, u query.Update, many bool) (query.UpdateResult, error) {
	var res query.UpdateResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range *c.items {
		doc := &(*c.items)[i]
		ok, err := c.match.matches(doc, f)
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}

		res.Matched++
		updated := *doc
		if err := c.apply(&updated, u); err != nil {
			return res, err
		}
		if !reflect.DeepEqual(*doc, updated) {
			*doc = updated
			res.Modified++
		}
		if !many {
			break
		}
	}
	return res, nil
}
