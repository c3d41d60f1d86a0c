package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/questionbank-api/internal/config"
	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
	"github.com/yourusername/questionbank-api/internal/domain/repository"
	"github.com/yourusername/questionbank-api/internal/repository/memory"
)

const (
	setFall      = "2021 ACF Fall"
	setRegionals = "2019 ACF Regionals"
	setOld       = "2005 Old Set"
)

var testSearchConfig = config.SearchConfig{
	DefaultReturnLength: 25,
	MaxReturnLength:     10000,
	DefaultMinYear:      2010,
	DefaultMaxYear:      2024,
}

func meta(set string, year, packet, number int, category, subcategory string, difficulty int) entity.QuestionMeta {
	return entity.QuestionMeta{
		ID:             uuid.New(),
		Category:       category,
		Subcategory:    subcategory,
		Difficulty:     difficulty,
		QuestionNumber: number,
		Packet:         entity.PacketRef{Name: "Packet", Number: packet},
		Set:            entity.SetRef{Name: set, Year: year},
	}
}

func newTossup(m entity.QuestionMeta, question, answer string) entity.Tossup {
	return entity.Tossup{QuestionMeta: m, Question: question, Answer: answer}
}

// testCorpus: наполненное хранилище в памяти с тремя сетами
type testCorpus struct {
	store   *memory.Store
	tossups []entity.Tossup
	bonuses []entity.Bonus
}

func newTestCorpus(t *testing.T) *testCorpus {
	t.Helper()

	store := memory.NewStore()
	store.AddSets(
		entity.Set{Name: setFall, Year: 2021, Difficulty: 2},
		entity.Set{Name: setRegionals, Year: 2019, Difficulty: 3},
		entity.Set{Name: setOld, Year: 2005, Difficulty: 3},
	)
	for _, s := range []entity.SetRef{{Name: setFall, Year: 2021}, {Name: setRegionals, Year: 2019}, {Name: setOld, Year: 2005}} {
		store.AddPackets(
			entity.Packet{Name: "Packet 1", Number: 1, Set: s},
			entity.Packet{Name: "Packet 2", Number: 2, Set: s},
		)
	}

	tossups := []entity.Tossup{
		newTossup(meta(setFall, 2021, 1, 1, "Literature", "European Literature", 2), "Name the café on the Left Bank", "Café de Flore"),
		newTossup(meta(setFall, 2021, 1, 2, "Science", "Physics", 2), "This theory of everything (*) unifies forces", "String theory"),
		newTossup(meta(setFall, 2021, 2, 1, "Science", "Chemistry", 3), "This element has atomic number 1", "Hydrogen"),
		newTossup(meta(setFall, 2021, 2, 2, "History", "European History", 3), "This emperor was crowned in 800", "Charlemagne"),
		newTossup(meta(setRegionals, 2019, 1, 1, "Science", "Biology", 4), "This organelle (*) produces ATP", "Mitochondria"),
		newTossup(meta(setRegionals, 2019, 1, 2, "Science", "Physics", 4), "This physicist studied light", "Newton"),
		newTossup(meta(setRegionals, 2019, 2, 1, "Science", "Math", 5), "This constant is about 2.718", "e"),
		newTossup(meta(setRegionals, 2019, 2, 2, "Science", "Chemistry", 5), "This gas is inert", "Argon"),
		newTossup(meta(setOld, 2005, 1, 1, "Science", "Physics", 5), "This old physics question", "Old answer"),
	}
	tossups[0].FormattedAnswer = "<b>Café de Flore</b>"
	tossups[0].Reports = entity.ReportList{{Reason: "wrong-category", Description: "это не литература"}}
	store.AddTossups(tossups...)

	bonuses := []entity.Bonus{
		{
			QuestionMeta:     meta(setFall, 2021, 1, 1, "Science", "Physics", 2),
			Leadin:           "Answer these questions about the theory of light",
			Parts:            pq.StringArray{"Name this wave property", "Name this particle", "Name this scientist"},
			Answers:          pq.StringArray{"diffraction", "photon", "Young"},
			FormattedAnswers: pq.StringArray{"<b>diffraction</b>", "<b>photon</b>", "<b>Young</b>"},
		},
		{
			QuestionMeta: meta(setFall, 2021, 2, 1, "History", "World History", 3),
			Leadin:       "Answer these questions about empires",
			Parts:        pq.StringArray{"Name this empire", "Name its capital"},
			Answers:      pq.StringArray{"Ottoman", "Istanbul"},
		},
		{
			QuestionMeta: meta(setRegionals, 2019, 1, 1, "Literature", "British Literature", 4),
			Leadin:       "Answer these questions about novels",
			Parts:        pq.StringArray{"Name this author", "Name this novel", "Name this character"},
			Answers:      pq.StringArray{"Austen", "Emma", "Knightley"},
		},
	}
	bonuses[2].Reports = entity.ReportList{{Reason: "wrong-category"}, {Reason: "text-error"}}
	require.NoError(t, store.AddBonuses(bonuses...))

	return &testCorpus{store: store, tossups: tossups, bonuses: bonuses}
}

func (c *testCorpus) questionService(t *testing.T) *QuestionService {
	t.Helper()
	registry, err := LoadSetRegistry(context.Background(), c.store)
	require.NoError(t, err)
	return NewQuestionService(c.store, c.store, registry, testSearchConfig, nil, nil)
}

func tossupIDs(tossups []entity.Tossup) []uuid.UUID {
	ids := make([]uuid.UUID, len(tossups))
	for i, t := range tossups {
		ids[i] = t.ID
	}
	return ids
}

// ============================================================================
// Моки хранилища
// ============================================================================

// MockCollection реализует repository.QuestionCollection
type MockCollection[T any] struct {
	mock.Mock
}

func (m *MockCollection[T]) Find(ctx context.Context, p query.Pipeline) ([]T, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockCollection[T]) Count(ctx context.Context, f query.Filter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCollection[T]) FindByID(ctx context.Context, id uuid.UUID, includeReports bool) (*T, error) {
	args := m.Called(ctx, id, includeReports)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

// MockWriter реализует repository.QuestionWriter
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) UpdateOne(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error) {
	args := m.Called(ctx, f, u)
	return args.Get(0).(query.UpdateResult), args.Error(1)
}

func (m *MockWriter) UpdateMany(ctx context.Context, f query.Filter, u query.Update) (query.UpdateResult, error) {
	args := m.Called(ctx, f, u)
	return args.Get(0).(query.UpdateResult), args.Error(1)
}

// MockQuestionStore реализует repository.QuestionStore
type MockQuestionStore struct {
	mock.Mock
	tossups *MockCollection[entity.Tossup]
	bonuses *MockCollection[entity.Bonus]
}

func newMockQuestionStore() *MockQuestionStore {
	return &MockQuestionStore{
		tossups: new(MockCollection[entity.Tossup]),
		bonuses: new(MockCollection[entity.Bonus]),
	}
}

func (m *MockQuestionStore) Tossups() repository.QuestionCollection[entity.Tossup] {
	return m.tossups
}

func (m *MockQuestionStore) Bonuses() repository.QuestionCollection[entity.Bonus] {
	return m.bonuses
}

func (m *MockQuestionStore) Writer(kind entity.QuestionKind) (repository.QuestionWriter, error) {
	args := m.Called(kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.QuestionWriter), args.Error(1)
}

func (m *MockQuestionStore) Stats(kind entity.QuestionKind) (repository.QuestionWriter, error) {
	args := m.Called(kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.QuestionWriter), args.Error(1)
}

func (m *MockQuestionStore) WithinTx(ctx context.Context, fn func(tx repository.QuestionStore) error) error {
	return fn(m)
}
