package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
	"github.com/yourusername/questionbank-api/internal/search"
)

func TestParseQuestionType(t *testing.T) {
	for in, want := range map[string]QuestionType{
		"":       QuestionTypeAll,
		"all":    QuestionTypeAll,
		"Tossup": QuestionTypeTossup,
		"bonus":  QuestionTypeBonus,
	} {
		got, err := ParseQuestionType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseQuestionType("quiz")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSearch_CountMatchesListing(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)

	testCases := []struct {
		name   string
		params SearchParams
	}{
		{"без фильтров", SearchParams{}},
		{"категория", SearchParams{Categories: []string{"Science"}}},
		{"текст по вопросу", SearchParams{QueryString: "this", SearchType: search.TargetQuestion}},
		{"текст по ответу", SearchParams{QueryString: "on", SearchType: search.TargetAnswer}},
		{"диапазон лет", SearchParams{MinYear: 2019, MaxYear: 2020}},
		{"только power", SearchParams{PowermarkOnly: true}},
		{"сложность и сет", SearchParams{Difficulties: []int{4, 5}, SetName: setRegionals}},
		{"подкатегории и regex", SearchParams{QueryString: "^this", Regex: true, Subcategories: []string{"Physics", "Chemistry"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.params.MaxReturnLength = 10000

			res := svc.Search(context.Background(), tc.params)

			assert.Equal(t, int64(len(res.Tossups.QuestionArray)), res.Tossups.Count, "число тоссапов должно совпадать с полной выдачей")
			assert.Equal(t, int64(len(res.Bonuses.QuestionArray)), res.Bonuses.Count, "число бонусов должно совпадать с полной выдачей")
		})
	}
}

func TestSearch_EmptyQueryMatchesEverything(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	baseline := svc.Search(ctx, SearchParams{})
	require.Equal(t, int64(len(corpus.tossups)), baseline.Tossups.Count)
	require.Equal(t, int64(len(corpus.bonuses)), baseline.Bonuses.Count)

	modes := []SearchParams{
		{QueryString: ""},
		{QueryString: "   "},
		{QueryString: "  ", Regex: true},
		{QueryString: "", ExactPhrase: true},
		{QueryString: " ", IgnoreDiacritics: true, ExactPhrase: true},
		{QueryString: "", Regex: true, IgnoreDiacritics: true, ExactPhrase: true},
	}
	for _, p := range modes {
		res := svc.Search(ctx, p)
		assert.Equal(t, baseline.Tossups.Count, res.Tossups.Count, "пустой запрос не должен ограничивать выборку: %+v", p)
		assert.Equal(t, baseline.Bonuses.Count, res.Bonuses.Count)
		assert.Empty(t, res.QueryString)
	}
}

func TestSearch_IgnoreDiacritics(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	folded := svc.Search(ctx, SearchParams{QueryString: "cafe", QuestionType: QuestionTypeTossup, IgnoreDiacritics: true})
	require.Equal(t, int64(1), folded.Tossups.Count, "cafe должно находить café при свертке диакритики")
	assert.Equal(t, corpus.tossups[0].ID, folded.Tossups.QuestionArray[0].ID)

	plain := svc.Search(ctx, SearchParams{QueryString: "cafe", QuestionType: QuestionTypeTossup})
	assert.Equal(t, int64(0), plain.Tossups.Count, "без свертки cafe не совпадает с café")
}

func TestSearch_ExactPhrase(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	params := SearchParams{
		QueryString:   "the",
		QuestionType:  QuestionTypeTossup,
		SetName:       setFall,
		Subcategories: []string{"Physics"},
	}

	loose := svc.Search(ctx, params)
	require.Equal(t, int64(1), loose.Tossups.Count, "без exactPhrase 'the' совпадает с 'theory'")

	params.ExactPhrase = true
	exact := svc.Search(ctx, params)
	assert.Equal(t, int64(0), exact.Tossups.Count, "с exactPhrase 'the' не совпадает с 'theory'")
	assert.Equal(t, `\bthe\b`, exact.QueryString)
}

func TestSearch_QuestionTypeLeavesOtherSideEmpty(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)

	res := svc.Search(context.Background(), SearchParams{QuestionType: QuestionTypeTossup})

	assert.Equal(t, int64(len(corpus.tossups)), res.Tossups.Count)
	assert.Equal(t, int64(0), res.Bonuses.Count)
	assert.NotNil(t, res.Bonuses.QuestionArray)
	assert.Empty(t, res.Bonuses.QuestionArray)
}

func TestSearch_PaginationFollowsCanonicalOrder(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)

	res := svc.Search(context.Background(), SearchParams{
		QuestionType:    QuestionTypeTossup,
		MaxReturnLength: 3,
		TossupPage:      2,
	})

	// Порядок: сет по убыванию имени, затем пакет и номер вопроса
	want := []uuid.UUID{corpus.tossups[3].ID, corpus.tossups[4].ID, corpus.tossups[5].ID}
	assert.Equal(t, want, tossupIDs(res.Tossups.QuestionArray))
	assert.Equal(t, int64(len(corpus.tossups)), res.Tossups.Count, "count считается по тому же предикату без пагинации")
}

func TestSearch_StripsReports(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)

	res := svc.Search(context.Background(), SearchParams{QueryString: "Left Bank"})

	require.Len(t, res.Tossups.QuestionArray, 1)
	assert.Empty(t, res.Tossups.QuestionArray[0].Reports, "жалобы не должны попадать в выдачу поиска")
}

func TestSearch_Randomize(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)

	res := svc.Search(context.Background(), SearchParams{
		QuestionType:    QuestionTypeTossup,
		MaxReturnLength: 4,
		Randomize:       true,
		TossupPage:      5,
	})

	require.Len(t, res.Tossups.QuestionArray, 4, "случайная выборка игнорирует номер страницы")
	assert.Equal(t, int64(len(corpus.tossups)), res.Tossups.Count)

	seen := make(map[uuid.UUID]struct{})
	for _, q := range res.Tossups.QuestionArray {
		seen[q.ID] = struct{}{}
	}
	assert.Len(t, seen, 4, "вопросы в выборке не повторяются")
}

func TestSearch_StoreFailureDegradesToEmpty(t *testing.T) {
	// Arrange
	store := newMockQuestionStore()
	store.tossups.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	store.tossups.On("Count", mock.Anything, mock.Anything).Return(int64(7), nil).Maybe()

	bonus := entity.Bonus{Leadin: "ok"}
	store.bonuses.On("Find", mock.Anything, mock.Anything).Return([]entity.Bonus{bonus}, nil)
	store.bonuses.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	svc := NewQuestionService(store, nil, nil, testSearchConfig, nil, nil)

	// Act
	res := svc.Search(context.Background(), SearchParams{QueryString: "anything"})

	// Assert
	assert.Equal(t, int64(0), res.Tossups.Count, "ошибка хранилища дает пустую половину")
	assert.Empty(t, res.Tossups.QuestionArray)
	assert.NotNil(t, res.Tossups.QuestionArray)
	assert.Equal(t, int64(1), res.Bonuses.Count, "другая половина не страдает")
	assert.Len(t, res.Bonuses.QuestionArray, 1)
	store.bonuses.AssertExpectations(t)
}

func TestGetRandomTossups_DistinctAndFiltered(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)

	tossups, err := svc.GetRandomTossups(context.Background(), RandomParams{
		Categories: []string{"Science"},
		Number:     5,
	})
	require.NoError(t, err)
	require.Len(t, tossups, 5)

	seen := make(map[uuid.UUID]struct{})
	for _, q := range tossups {
		seen[q.ID] = struct{}{}
		assert.Equal(t, "Science", q.Category)
		assert.GreaterOrEqual(t, q.Set.Year, testSearchConfig.DefaultMinYear)
		assert.LessOrEqual(t, q.Set.Year, testSearchConfig.DefaultMaxYear)
		assert.Empty(t, q.Reports)
	}
	assert.Len(t, seen, 5, "все вопросы выборки различны")
}

func TestGetRandomTossups_Defaults(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	one, err := svc.GetRandomTossups(ctx, RandomParams{})
	require.NoError(t, err)
	assert.Len(t, one, 1, "неположительное число заменяется единицей")

	all, err := svc.GetRandomTossups(ctx, RandomParams{Number: 100})
	require.NoError(t, err)
	assert.Len(t, all, len(corpus.tossups)-1, "сет 2005 года вне диапазона лет по умолчанию")
	for _, q := range all {
		assert.NotEqual(t, setOld, q.Set.Name)
	}

	withOld, err := svc.GetRandomTossups(ctx, RandomParams{Number: 100, MinYear: 2000})
	require.NoError(t, err)
	assert.Len(t, withOld, len(corpus.tossups))

	power, err := svc.GetRandomTossups(ctx, RandomParams{Number: 100, PowermarkOnly: true})
	require.NoError(t, err)
	assert.Len(t, power, 2)
	for _, q := range power {
		assert.Contains(t, q.Question, entity.PowerMark)
	}
}

func TestGetRandomBonuses_BonusLength(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)

	bonuses, err := svc.GetRandomBonuses(context.Background(), RandomParams{Number: 10, BonusLength: 2})
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, corpus.bonuses[1].ID, bonuses[0].ID)
	assert.Len(t, bonuses[0].Parts, 2)
}

func TestGetRandomTossups_StoreError(t *testing.T) {
	store := newMockQuestionStore()
	store.tossups.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	svc := NewQuestionService(store, nil, nil, testSearchConfig, nil, nil)

	_, err := svc.GetRandomTossups(context.Background(), RandomParams{Number: 3})
	assert.Error(t, err)
}

func TestGetPacket_UnknownInputsReturnEmpty(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	for _, p := range []PacketParams{
		{SetName: "Nonexistent Set", PacketNumber: 1},
		{SetName: "", PacketNumber: 1},
		{SetName: setFall, PacketNumber: 0},
		{SetName: setFall, PacketNumber: -3},
		{SetName: setFall, PacketNumber: 9},
	} {
		res, err := svc.GetPacket(ctx, p)
		require.NoError(t, err, "%+v", p)
		assert.NotNil(t, res.Tossups)
		assert.NotNil(t, res.Bonuses)
		assert.Empty(t, res.Tossups)
		assert.Empty(t, res.Bonuses)
	}
}

func TestGetPacket_QuestionTypesAndOverride(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	// Только тоссапы: бонусы пакета 1 существуют, но не возвращаются
	res, err := svc.GetPacket(ctx, PacketParams{SetName: setFall, PacketNumber: 1, QuestionTypes: []entity.QuestionKind{entity.KindTossup}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{corpus.tossups[0].ID, corpus.tossups[1].ID}, tossupIDs(res.Tossups))
	assert.Empty(t, res.Bonuses)
	assert.Equal(t, "<b>Café de Flore</b>", res.Tossups[0].Answer, "по умолчанию подставляется форматированный ответ")
	assert.Empty(t, res.Tossups[0].Reports)

	both, err := svc.GetPacket(ctx, PacketParams{SetName: setFall, PacketNumber: 1})
	require.NoError(t, err)
	assert.Len(t, both.Tossups, 2)
	require.Len(t, both.Bonuses, 1)
	assert.Equal(t, []string{"<b>diffraction</b>", "<b>photon</b>", "<b>Young</b>"}, []string(both.Bonuses[0].Answers))

	raw, err := svc.GetPacket(ctx, PacketParams{SetName: setFall, PacketNumber: 1, RawAnswers: true})
	require.NoError(t, err)
	assert.Equal(t, "Café de Flore", raw.Tossups[0].Answer, "без подстановки возвращается исходный ответ")
	assert.Equal(t, "diffraction", raw.Bonuses[0].Answers[0])
}

func TestGetSet_OrderingAndFilters(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	res, err := svc.GetSet(ctx, SetParams{SetName: setRegionals})
	require.NoError(t, err)
	assert.Equal(t, entity.KindTossup, res.Kind)
	assert.Equal(t, []uuid.UUID{corpus.tossups[4].ID, corpus.tossups[5].ID, corpus.tossups[6].ID, corpus.tossups[7].ID}, tossupIDs(res.Tossups))

	reversed, err := svc.GetSet(ctx, SetParams{SetName: setRegionals, Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{corpus.tossups[7].ID, corpus.tossups[6].ID, corpus.tossups[5].ID, corpus.tossups[4].ID}, tossupIDs(reversed.Tossups))

	packet2, err := svc.GetSet(ctx, SetParams{SetName: setRegionals, PacketNumbers: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{corpus.tossups[6].ID, corpus.tossups[7].ID}, tossupIDs(packet2.Tossups))

	chemistry, err := svc.GetSet(ctx, SetParams{SetName: setRegionals, Subcategories: []string{"Chemistry"}})
	require.NoError(t, err)
	assert.Equal(t, 1, chemistry.Len())

	bonuses, err := svc.GetSet(ctx, SetParams{SetName: setFall, QuestionType: entity.KindBonus})
	require.NoError(t, err)
	assert.Len(t, bonuses.Bonuses, 2)
	assert.Empty(t, bonuses.Tossups)
	assert.Equal(t, "<b>photon</b>", bonuses.Bonuses[0].Answers[1])
	assert.IsType(t, []entity.Bonus{}, bonuses.Questions())
}

func TestGetSet_UnknownSetAndType(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	res, err := svc.GetSet(ctx, SetParams{SetName: "Nonexistent Set"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.NotNil(t, res.Tossups)

	_, err = svc.GetSet(ctx, SetParams{SetName: setFall, QuestionType: "quiz"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetSetListAndNumPackets(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	assert.Equal(t, []string{setFall, setRegionals, setOld}, svc.GetSetList())

	n, err := svc.GetNumPackets(ctx, setFall)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.GetNumPackets(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestGetQuestionByID(t *testing.T) {
	corpus := newTestCorpus(t)
	svc := corpus.questionService(t)
	ctx := context.Background()

	rec, err := svc.GetQuestionByID(ctx, entity.KindTossup, corpus.tossups[0].ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Tossup)
	assert.Nil(t, rec.Bonus)
	assert.Len(t, rec.Tossup.Reports, 1, "модераторский просмотр включает жалобы")

	_, err = svc.GetQuestionByID(ctx, entity.KindBonus, corpus.tossups[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetQuestionByID(ctx, "quiz", corpus.tossups[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSetRegistry(t *testing.T) {
	r := NewSetRegistry([]string{"b", "a", "c", "a", ""})

	assert.Equal(t, []string{"c", "b", "a"}, r.Names())
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Contains("a"))
	assert.False(t, r.Contains(""))

	names := r.Names()
	names[0] = "changed"
	assert.Equal(t, "c", r.Names()[0], "Names возвращает копию")
}
