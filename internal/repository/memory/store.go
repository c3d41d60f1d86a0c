// Package memory реализует хранилище вопросов в памяти процесса.
// Используется в тестах и при store.driver=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/repository"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
)

type state struct {
	sets        []entity.Set
	packets     []entity.Packet
	tossups     []entity.Tossup
	bonuses     []entity.Bonus
	tossupStats []entity.TossupStat
	bonusStats  []entity.BonusStat
}

func (s *state) clone() state {
	return state{
		sets:        slices.Clone(s.sets),
		packets:     slices.Clone(s.packets),
		tossups:     slices.Clone(s.tossups),
		bonuses:     slices.Clone(s.bonuses),
		tossupStats: slices.Clone(s.tossupStats),
		bonusStats:  slices.Clone(s.bonusStats),
	}
}

// collections: типизированные коллекции поверх общего состояния
type collections struct {
	tossups     *collection[entity.Tossup]
	bonuses     *collection[entity.Bonus]
	tossupStats *collection[entity.TossupStat]
	bonusStats  *collection[entity.BonusStat]
}

func newCollections(data *state, mu rwLocker, patterns *patternCache) collections {
	return collections{
		tossups: &collection[entity.Tossup]{
			mu:    mu,
			items: &data.tossups,
			match: matcher[entity.Tossup]{get: tossupField, patterns: patterns},
			apply: applyTossup,
			meta:  func(t *entity.Tossup) *entity.QuestionMeta { return &t.QuestionMeta },
		},
		bonuses: &collection[entity.Bonus]{
			mu:    mu,
			items: &data.bonuses,
			match: matcher[entity.Bonus]{get: bonusField, patterns: patterns},
			apply: applyBonus,
			meta:  func(b *entity.Bonus) *entity.QuestionMeta { return &b.QuestionMeta },
		},
		tossupStats: &collection[entity.TossupStat]{
			mu:    mu,
			items: &data.tossupStats,
			match: matcher[entity.TossupStat]{get: tossupStatField, patterns: patterns},
			apply: applyTossupStat,
		},
		bonusStats: &collection[entity.BonusStat]{
			mu:    mu,
			items: &data.bonusStats,
			match: matcher[entity.BonusStat]{get: bonusStatField, patterns: patterns},
			apply: applyBonusStat,
		},
	}
}

// Tossups возвращает коллекцию тоссапов
func (c collections) Tossups() repository.QuestionCollection[entity.Tossup] {
	return c.tossups
}

// Bonuses возвращает коллекцию бонусов
func (c collections) Bonuses() repository.QuestionCollection[entity.Bonus] {
	return c.bonuses
}

// Writer возвращает writer коллекции вопросов
func (c collections) Writer(kind entity.QuestionKind) (repository.QuestionWriter, error) {
	switch kind {
	case entity.KindTossup:
		return c.tossups, nil
	case entity.KindBonus:
		return c.bonuses, nil
	}
	return nil, fmt.Errorf("%w: unknown question kind %q", apperrors.ErrValidation, kind)
}

// Stats возвращает writer статистики
func (c collections) Stats(kind entity.QuestionKind) (repository.QuestionWriter, error) {
	switch kind {
	case entity.KindTossup:
		return c.tossupStats, nil
	case entity.KindBonus:
		return c.bonusStats, nil
	}
	return nil, fmt.Errorf("%w: unknown question kind %q", apperrors.ErrValidation, kind)
}

// Store реализует repository.QuestionStore, repository.SetRepository и repository.PacketRepository
type Store struct {
	collections

	mu   sync.RWMutex
	data state
	// tx: те же коллекции без собственной блокировки, для кода внутри WithinTx
	tx txStore
}

var (
	_ repository.QuestionStore    = (*Store)(nil)
	_ repository.SetRepository    = (*Store)(nil)
	_ repository.PacketRepository = (*Store)(nil)
)

// NewStore создает пустое хранилище
func NewStore() *Store {
	s := &Store{}
	patterns := newPatternCache()
	s.collections = newCollections(&s.data, &s.mu, patterns)
	s.tx = txStore{newCollections(&s.data, heldLock{}, patterns)}
	return s
}

// WithinTx выполняет fn под блокировкой хранилища и откатывает изменения, если fn вернула ошибку.
// Конкурентные запросы ждут окончания транзакции, поэтому откат не затирает чужие записи.
// Внутри fn допустимо обращаться только к переданному tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.QuestionStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.tx); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// txStore: представление хранилища внутри WithinTx; блокировку уже держит Store
type txStore struct {
	collections
}

// WithinTx внутри транзакции выполняет fn в ней же
func (t txStore) WithinTx(ctx context.Context, fn func(tx repository.QuestionStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t)
}

// ListNames возвращает имена сетов в порядке убывания
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data.sets))
	for _, set := range s.data.sets {
		names = append(names, set.Name)
	}
	slices.SortFunc(names, func(a, b string) int { return strings.Compare(b, a) })
	return names, nil
}

// FindBySetAndNumber возвращает пакет сета по номеру
func (s *Store) FindBySetAndNumber(ctx context.Context, setName string, number int) (*entity.Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data.packets {
		if p.Set.Name == setName && p.Number == number {
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// CountBySet возвращает число пакетов в сете
func (s *Store) CountBySet(ctx context.Context, setName string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.data.packets {
		if p.Set.Name == setName {
			n++
		}
	}
	return n, nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func ensureTimestamps(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = *created
	}
}

// AddSets добавляет сеты. Пустой ID заменяется новым UUID.
func (s *Store) AddSets(sets ...entity.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, set := range sets {
		ensureID(&set.ID)
		ensureTimestamps(&set.CreatedAt, nil)
		s.data.sets = append(s.data.sets, set)
	}
}

// AddPackets добавляет пакеты
func (s *Store) AddPackets(packets ...entity.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range packets {
		ensureID(&p.ID)
		ensureTimestamps(&p.CreatedAt, nil)
		s.data.packets = append(s.data.packets, p)
	}
}

// AddTossups добавляет тоссапы
func (s *Store) AddTossups(tossups ...entity.Tossup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tossups {
		ensureID(&t.ID)
		ensureTimestamps(&t.CreatedAt, &t.UpdatedAt)
		s.data.tossups = append(s.data.tossups, t)
	}
}

// AddBonuses добавляет бонусы. Бонусы с несогласованными массивами отклоняются целиком.
func (s *Store) AddBonuses(bonuses ...entity.Bonus) error {
	for i := range bonuses {
		if err := bonuses[i].Validate(); err != nil {
			return fmt.Errorf("bonus %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bonuses {
		ensureID(&b.ID)
		ensureTimestamps(&b.CreatedAt, &b.UpdatedAt)
		s.data.bonuses = append(s.data.bonuses, b)
	}
	return nil
}

// AddTossupStats добавляет записи статистики по тоссапам
func (s *Store) AddTossupStats(stats ...entity.TossupStat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range stats {
		ensureTimestamps(&st.CreatedAt, nil)
		st.ID = uint(len(s.data.tossupStats) + 1)
		s.data.tossupStats = append(s.data.tossupStats, st)
	}
}

// AddBonusStats добавляет записи статистики по бонусам
func (s *Store) AddBonusStats(stats ...entity.BonusStat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range stats {
		ensureTimestamps(&st.CreatedAt, nil)
		st.ID = uint(len(s.data.bonusStats) + 1)
		s.data.bonusStats = append(s.data.bonusStats, st)
	}
}

// TossupStats возвращает копию записей статистики по тоссапам
func (s *Store) TossupStats() []entity.TossupStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.tossupStats)
}

// BonusStats возвращает копию записей статистики по бонусам
func (s *Store) BonusStats() []entity.BonusStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.bonusStats)
}
