package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/questionbank-api/internal/handler/dto"
	"github.com/yourusername/questionbank-api/internal/service"
)

func (s *testServer) moderatorToken(t *testing.T) string {
	t.Helper()
	token, err := s.jwt.GenerateToken("moderator", true)
	require.NoError(t, err)
	return token
}

func TestAdminRoutes_RequireModerator(t *testing.T) {
	s := newTestServer(t)

	userToken, err := s.jwt.GenerateToken("player", false)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/admin/list-reports?reason=wrong-category", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/list-reports?reason=wrong-category", nil, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListReportsEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := s.moderatorToken(t)

	rec := s.do(t, http.MethodGet, "/api/admin/list-reports?reason=wrong-category", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	reports := decode[service.ReportsResult](t, rec)
	require.Len(t, reports.Tossups, 1)
	assert.Equal(t, s.tossups[0].ID, reports.Tossups[0].ID)
	assert.Len(t, reports.Tossups[0].Reports, 1, "модератор видит жалобы")
	assert.Empty(t, reports.Bonuses)

	rec = s.do(t, http.MethodGet, "/api/admin/list-reports", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSubcategoryEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := s.moderatorToken(t)
	ctx := context.Background()

	// Arrange
	req := dto.UpdateSubcategoryRequest{
		ID:          s.tossups[0].ID.String(),
		Type:        "tossup",
		Subcategory: "Physics",
	}

	// Act
	rec := s.do(t, http.MethodPut, "/api/admin/update-subcategory", req, token)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[service.RecategorizeResult](t, rec)
	assert.Equal(t, int64(1), result.Matched)
	assert.Equal(t, "Science", result.Category)

	stored, err := s.store.Tossups().FindByID(ctx, s.tossups[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Physics", stored.Subcategory)
	assert.Empty(t, stored.Reports, "жалобы очищаются по умолчанию")
}

func TestUpdateSubcategoryEndpoint_KeepReports(t *testing.T) {
	s := newTestServer(t)
	token := s.moderatorToken(t)

	keep := false
	rec := s.do(t, http.MethodPut, "/api/admin/update-subcategory", dto.UpdateSubcategoryRequest{
		ID:           s.tossups[0].ID.String(),
		Type:         "tossup",
		Subcategory:  "Chemistry",
		ClearReports: &keep,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := s.store.Tossups().FindByID(context.Background(), s.tossups[0].ID, true)
	require.NoError(t, err)
	assert.Len(t, stored.Reports, 1)
}

func TestUpdateSubcategoryEndpoint_Errors(t *testing.T) {
	s := newTestServer(t)
	token := s.moderatorToken(t)

	testCases := []struct {
		name   string
		req    dto.UpdateSubcategoryRequest
		status int
	}{
		{"неизвестная подкатегория", dto.UpdateSubcategoryRequest{ID: s.tossups[0].ID.String(), Type: "tossup", Subcategory: "Astrology"}, http.StatusBadRequest},
		{"неизвестный тип", dto.UpdateSubcategoryRequest{ID: s.tossups[0].ID.String(), Type: "quiz", Subcategory: "Physics"}, http.StatusBadRequest},
		{"неверный id", dto.UpdateSubcategoryRequest{ID: "nope", Type: "tossup", Subcategory: "Physics"}, http.StatusBadRequest},
		{"вопрос не найден", dto.UpdateSubcategoryRequest{ID: uuid.NewString(), Type: "tossup", Subcategory: "Physics"}, http.StatusNotFound},
		{"тип не совпадает с вопросом", dto.UpdateSubcategoryRequest{ID: s.tossups[0].ID.String(), Type: "bonus", Subcategory: "Physics"}, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, "/api/admin/update-subcategory", tc.req, token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}

	stored, err := s.store.Tossups().FindByID(context.Background(), s.tossups[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, "European Literature", stored.Subcategory, "ошибки не меняют вопрос")
}

func TestGetQuestionEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := s.moderatorToken(t)

	rec := s.do(t, http.MethodGet, "/api/admin/question/bonus/"+s.bonuses[0].ID.String(), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	record := decode[service.QuestionRecord](t, rec)
	require.NotNil(t, record.Bonus)
	assert.Equal(t, s.bonuses[0].ID, record.Bonus.ID)
	assert.Nil(t, record.Tossup)

	rec = s.do(t, http.MethodGet, "/api/admin/question/tossup/"+uuid.NewString(), nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/question/quiz/"+s.bonuses[0].ID.String(), nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
