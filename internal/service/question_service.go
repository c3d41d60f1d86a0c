package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/questionbank-api/internal/config"
	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
	"github.com/yourusername/questionbank-api/internal/domain/repository"
	"github.com/yourusername/questionbank-api/internal/metrics"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
	"github.com/yourusername/questionbank-api/internal/pkg/logger"
	"github.com/yourusername/questionbank-api/internal/search"
)

// QuestionType выбирает коллекции, по которым ведется поиск
type QuestionType string

const (
	QuestionTypeTossup QuestionType = "tossup"
	QuestionTypeBonus  QuestionType = "bonus"
	QuestionTypeAll    QuestionType = "all"
)

// ParseQuestionType разбирает тип вопроса для поиска. Пустая строка означает обе коллекции.
func ParseQuestionType(s string) (QuestionType, error) {
	switch QuestionType(strings.ToLower(strings.TrimSpace(s))) {
	case "", QuestionTypeAll:
		return QuestionTypeAll, nil
	case QuestionTypeTossup:
		return QuestionTypeTossup, nil
	case QuestionTypeBonus:
		return QuestionTypeBonus, nil
	default:
		return "", fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, s)
	}
}

// Includes проверяет, входит ли коллекция kind в выбранный тип
func (t QuestionType) Includes(kind entity.QuestionKind) bool {
	switch t {
	case "", QuestionTypeAll:
		return true
	default:
		return string(t) == string(kind)
	}
}

// SearchParams: параметры полнотекстового поиска. Нулевые значения не ограничивают выборку.
type SearchParams struct {
	QueryString      string
	Difficulties     []int
	Categories       []string
	Subcategories    []string
	SetName          string
	SearchType       search.Target
	QuestionType     QuestionType
	MaxReturnLength  int
	Randomize        bool
	Regex            bool
	ExactPhrase      bool
	IgnoreDiacritics bool
	PowermarkOnly    bool
	TossupPage       int
	BonusPage        int
	MinYear          int
	MaxYear          int
}

// QuestionPage: одна страница выдачи и общее число совпадений
type QuestionPage[T any] struct {
	Count         int64 `json:"count"`
	QuestionArray []T   `json:"question_array"`
}

func emptyPage[T any]() QuestionPage[T] {
	return QuestionPage[T]{QuestionArray: []T{}}
}

// SearchResult: результат поиска по обеим коллекциям
type SearchResult struct {
	Tossups QuestionPage[entity.Tossup] `json:"tossups"`
	Bonuses QuestionPage[entity.Bonus]  `json:"bonuses"`
	// QueryString: итоговый шаблон после нормализации
	QueryString string `json:"query_string"`
}

// PacketParams: параметры получения одного пакета
type PacketParams struct {
	SetName      string
	PacketNumber int
	// QuestionTypes: запрашиваемые коллекции; пустой список означает обе
	QuestionTypes []entity.QuestionKind
	// RawAnswers отключает подстановку форматированных ответов
	RawAnswers bool
}

// PacketResult: вопросы одного пакета
type PacketResult struct {
	Tossups []entity.Tossup `json:"tossups"`
	Bonuses []entity.Bonus  `json:"bonuses"`
}

// SetParams: параметры выгрузки вопросов сета
type SetParams struct {
	SetName string
	// PacketNumbers: номера пакетов; пустой список означает все пакеты
	PacketNumbers []int
	Categories    []string
	Subcategories []string
	// QuestionType: коллекция; по умолчанию тоссапы
	QuestionType entity.QuestionKind
	RawAnswers   bool
	Reverse      bool
}

// SetQuestions: вопросы сета одной коллекции
type SetQuestions struct {
	Kind    entity.QuestionKind
	Tossups []entity.Tossup
	Bonuses []entity.Bonus
}

// Questions возвращает вопросы запрошенной коллекции
func (r *SetQuestions) Questions() any {
	if r.Kind == entity.KindBonus {
		return r.Bonuses
	}
	return r.Tossups
}

// Len возвращает число вопросов
func (r *SetQuestions) Len() int {
	if r.Kind == entity.KindBonus {
		return len(r.Bonuses)
	}
	return len(r.Tossups)
}

// RandomParams: фильтры случайной выборки для тренировки
type RandomParams struct {
	Difficulties  []int
	Categories    []string
	Subcategories []string
	Number        int
	MinYear       int
	MaxYear       int
	PowermarkOnly bool
	// BonusLength > 0 оставляет только бонусы с таким числом частей
	BonusLength int
}

// QuestionRecord: вопрос любой коллекции с жалобами, для модераторов
type QuestionRecord struct {
	Kind   entity.QuestionKind `json:"type"`
	Tossup *entity.Tossup      `json:"tossup,omitempty"`
	Bonus  *entity.Bonus       `json:"bonus,omitempty"`
}

// QuestionService реализует поиск, случайную выборку и получение пакетов и сетов
type QuestionService struct {
	store      repository.QuestionStore
	packets    repository.PacketRepository
	registry   *SetRegistry
	normalizer *search.Normalizer
	aggregator *search.Aggregator
	cfg        config.SearchConfig
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time
}

// NewQuestionService создает сервис вопросов
func NewQuestionService(
	store repository.QuestionStore,
	packets repository.PacketRepository,
	registry *SetRegistry,
	cfg config.SearchConfig,
	m *metrics.Metrics,
	log *zap.Logger,
) *QuestionService {
	if registry == nil {
		registry = NewSetRegistry(nil)
	}
	return &QuestionService{
		store:      store,
		packets:    packets,
		registry:   registry,
		normalizer: search.NewNormalizer(),
		aggregator: search.NewAggregator(cfg.DefaultReturnLength, cfg.MaxReturnLength),
		cfg:        cfg,
		metrics:    m,
		log:        logger.OrNop(log).Named("search"),
		now:        time.Now,
	}
}

// Search ищет вопросы по обеим коллекциям. Ошибки хранилища не возвращаются:
// они логируются, а соответствующая половина результата остается пустой.
func (s *QuestionService) Search(ctx context.Context, p SearchParams) *SearchResult {
	pattern := s.normalizer.Normalize(p.QueryString, search.NormalizeOptions{
		Regex:            p.Regex,
		IgnoreDiacritics: p.IgnoreDiacritics,
		ExactPhrase:      p.ExactPhrase,
	})

	target := p.SearchType
	if target == "" {
		target = search.TargetQuestion
	}

	criteria := search.Criteria{
		Pattern:       pattern,
		Target:        target,
		Difficulties:  p.Difficulties,
		Categories:    p.Categories,
		Subcategories: p.Subcategories,
		SetName:       p.SetName,
		MinYear:       p.MinYear,
		MaxYear:       p.MaxYear,
		PowermarkOnly: p.PowermarkOnly,
	}

	result := &SearchResult{
		Tossups:     emptyPage[entity.Tossup](),
		Bonuses:     emptyPage[entity.Bonus](),
		QueryString: pattern,
	}

	// половины пишут в разные поля result
	var g errgroup.Group
	if p.QuestionType.Includes(entity.KindTossup) {
		g.Go(func() error {
			pipeline := s.aggregator.Build(search.BuildFilter(entity.KindTossup, criteria), p.TossupPage, p.MaxReturnLength, p.Randomize)
			result.Tossups = searchCollection(ctx, s, entity.KindTossup, s.store.Tossups(), pipeline)
			return nil
		})
	}
	if p.QuestionType.Includes(entity.KindBonus) {
		g.Go(func() error {
			pipeline := s.aggregator.Build(search.BuildFilter(entity.KindBonus, criteria), p.BonusPage, p.MaxReturnLength, p.Randomize)
			result.Bonuses = searchCollection(ctx, s, entity.KindBonus, s.store.Bonuses(), pipeline)
			return nil
		})
	}
	_ = g.Wait()

	s.log.Debug("search completed",
		zap.String("pattern", pattern),
		zap.String("question_type", string(p.QuestionType)),
		zap.String("search_type", string(target)),
		zap.Bool("randomize", p.Randomize),
		zap.Int64("tossups", result.Tossups.Count),
		zap.Int64("bonuses", result.Bonuses.Count),
	)
	return result
}

// searchCollection выполняет выборку и подсчет по одному предикату параллельно.
// При ошибке возвращает пустую страницу.
func searchCollection[T any](ctx context.Context, s *QuestionService, kind entity.QuestionKind, coll repository.QuestionCollection[T], pipeline query.Pipeline) QuestionPage[T] {
	start := time.Now()
	mode := metrics.ModeOrdered
	if pipeline.Sampled() {
		mode = metrics.ModeSampled
	}

	var (
		items []T
		count int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = coll.Find(gctx, pipeline)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = coll.Count(gctx, pipeline.Match)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("search failed, returning empty result",
			zap.String("type", string(kind)),
			zap.String("mode", mode),
			zap.Error(err),
		)
		s.metrics.IncSearchFailure(string(kind))
		return emptyPage[T]()
	}

	if items == nil {
		items = []T{}
	}
	s.metrics.ObserveSearch(string(kind), mode, start, len(items))
	return QuestionPage[T]{Count: count, QuestionArray: items}
}

// GetPacket возвращает вопросы одного пакета в порядке номеров.
// Неизвестный сет, неположительный номер или отсутствующий пакет дают пустой результат.
func (s *QuestionService) GetPacket(ctx context.Context, p PacketParams) (*PacketResult, error) {
	result := &PacketResult{Tossups: []entity.Tossup{}, Bonuses: []entity.Bonus{}}

	if p.SetName == "" || p.PacketNumber < 1 || !s.registry.Contains(p.SetName) {
		return result, nil
	}

	packet, err := s.packets.FindBySetAndNumber(ctx, p.SetName, p.PacketNumber)
	if errors.Is(err, apperrors.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find packet %d of %q: %w", p.PacketNumber, p.SetName, err)
	}

	pipeline := query.Pipeline{
		Match: query.And(
			query.Eq{Field: query.FieldSetName, Value: packet.Set.Name},
			query.Eq{Field: query.FieldPacketNumber, Value: packet.Number},
		),
		Sort: []query.SortKey{{Field: query.FieldQuestionNumber}},
	}

	wantTossups, wantBonuses := requestedKinds(p.QuestionTypes)

	g, gctx := errgroup.WithContext(ctx)
	if wantTossups {
		g.Go(func() error {
			tossups, err := s.store.Tossups().Find(gctx, pipeline)
			if err != nil {
				return fmt.Errorf("failed to load packet tossups: %w", err)
			}
			if tossups != nil {
				result.Tossups = tossups
			}
			return nil
		})
	}
	if wantBonuses {
		g.Go(func() error {
			bonuses, err := s.store.Bonuses().Find(gctx, pipeline)
			if err != nil {
				return fmt.Errorf("failed to load packet bonuses: %w", err)
			}
			if bonuses != nil {
				result.Bonuses = bonuses
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !p.RawAnswers {
		applyTossupAnswers(result.Tossups)
		applyBonusAnswers(result.Bonuses)
	}
	return result, nil
}

func requestedKinds(kinds []entity.QuestionKind) (tossups, bonuses bool) {
	if len(kinds) == 0 {
		return true, true
	}
	for _, k := range kinds {
		switch k {
		case entity.KindTossup:
			tossups = true
		case entity.KindBonus:
			bonuses = true
		}
	}
	return tossups, bonuses
}

// GetSet возвращает вопросы сета, отсортированные по пакету и номеру вопроса
func (s *QuestionService) GetSet(ctx context.Context, p SetParams) (*SetQuestions, error) {
	kind := p.QuestionType
	if kind == "" {
		kind = entity.KindTossup
	}
	if kind != entity.KindTossup && kind != entity.KindBonus {
		return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, kind)
	}

	result := &SetQuestions{Kind: kind, Tossups: []entity.Tossup{}, Bonuses: []entity.Bonus{}}
	if p.SetName == "" || !s.registry.Contains(p.SetName) {
		return result, nil
	}

	filter := query.And(query.Eq{Field: query.FieldSetName, Value: p.SetName})
	if len(p.PacketNumbers) > 0 {
		filter = filter.With(query.InInts(query.FieldPacketNumber, p.PacketNumbers))
	}
	if len(p.Categories) > 0 {
		filter = filter.With(query.InStrings(query.FieldCategory, p.Categories))
	}
	if len(p.Subcategories) > 0 {
		filter = filter.With(query.InStrings(query.FieldSubcategory, p.Subcategories))
	}

	pipeline := query.Pipeline{
		Match: filter,
		Sort: []query.SortKey{
			{Field: query.FieldPacketNumber, Desc: p.Reverse},
			{Field: query.FieldQuestionNumber, Desc: p.Reverse},
		},
	}

	switch kind {
	case entity.KindBonus:
		bonuses, err := s.store.Bonuses().Find(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to load set bonuses: %w", err)
		}
		if bonuses != nil {
			result.Bonuses = bonuses
		}
		if !p.RawAnswers {
			applyBonusAnswers(result.Bonuses)
		}
	default:
		tossups, err := s.store.Tossups().Find(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to load set tossups: %w", err)
		}
		if tossups != nil {
			result.Tossups = tossups
		}
		if !p.RawAnswers {
			applyTossupAnswers(result.Tossups)
		}
	}
	return result, nil
}

func applyTossupAnswers(tossups []entity.Tossup) {
	for i := range tossups {
		tossups[i].ApplyFormattedAnswer()
	}
}

func applyBonusAnswers(bonuses []entity.Bonus) {
	for i := range bonuses {
		bonuses[i].ApplyFormattedAnswers()
	}
}

// GetRandomTossups возвращает случайные тоссапы. Повторные вызовы могут пересекаться.
func (s *QuestionService) GetRandomTossups(ctx context.Context, p RandomParams) ([]entity.Tossup, error) {
	pipeline := s.randomPipeline(entity.KindTossup, p)
	start := time.Now()
	tossups, err := s.store.Tossups().Find(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample tossups: %w", err)
	}
	s.metrics.ObserveSearch(string(entity.KindTossup), metrics.ModeSampled, start, len(tossups))
	if tossups == nil {
		tossups = []entity.Tossup{}
	}
	return tossups, nil
}

// GetRandomBonuses возвращает случайные бонусы. Повторные вызовы могут пересекаться.
func (s *QuestionService) GetRandomBonuses(ctx context.Context, p RandomParams) ([]entity.Bonus, error) {
	pipeline := s.randomPipeline(entity.KindBonus, p)
	start := time.Now()
	bonuses, err := s.store.Bonuses().Find(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample bonuses: %w", err)
	}
	s.metrics.ObserveSearch(string(entity.KindBonus), metrics.ModeSampled, start, len(bonuses))
	if bonuses == nil {
		bonuses = []entity.Bonus{}
	}
	return bonuses, nil
}

func (s *QuestionService) randomPipeline(kind entity.QuestionKind, p RandomParams) query.Pipeline {
	minYear, maxYear := p.MinYear, p.MaxYear
	if minYear <= 0 {
		minYear = s.cfg.DefaultMinYear
	}
	if maxYear <= 0 {
		maxYear = s.cfg.MaxYear(s.now())
	}

	number := p.Number
	if number <= 0 {
		number = 1
	}

	filter := search.BuildFilter(kind, search.Criteria{
		Difficulties:  p.Difficulties,
		Categories:    p.Categories,
		Subcategories: p.Subcategories,
		MinYear:       minYear,
		MaxYear:       maxYear,
		PowermarkOnly: p.PowermarkOnly,
		BonusLength:   p.BonusLength,
	})
	return s.aggregator.Sampled(filter, number)
}

// GetSetList возвращает имена всех сетов по убыванию
func (s *QuestionService) GetSetList() []string {
	return s.registry.Names()
}

// GetNumPackets возвращает число пакетов сета. Для пустого имени возвращает 0.
func (s *QuestionService) GetNumPackets(ctx context.Context, setName string) (int64, error) {
	if setName == "" {
		return 0, nil
	}
	n, err := s.packets.CountBySet(ctx, setName)
	if err != nil {
		return 0, fmt.Errorf("failed to count packets of %q: %w", setName, err)
	}
	return n, nil
}

// GetQuestionByID возвращает вопрос вместе с жалобами
func (s *QuestionService) GetQuestionByID(ctx context.Context, kind entity.QuestionKind, id uuid.UUID) (*QuestionRecord, error) {
	switch kind {
	case entity.KindTossup:
		t, err := s.store.Tossups().FindByID(ctx, id, true)
		if err != nil {
			return nil, fmt.Errorf("failed to get tossup %s: %w", id, err)
		}
		return &QuestionRecord{Kind: kind, Tossup: t}, nil
	case entity.KindBonus:
		b, err := s.store.Bonuses().FindByID(ctx, id, true)
		if err != nil {
			return nil, fmt.Errorf("failed to get bonus %s: %w", id, err)
		}
		return &QuestionRecord{Kind: kind, Bonus: b}, nil
	default:
		return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, kind)
	}
}
