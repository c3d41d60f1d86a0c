package dto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/handler/helper"
	apperrors "github.com/yourusername/questionbank-api/internal/pkg/errors"
	"github.com/yourusername/questionbank-api/internal/search"
	"github.com/yourusername/questionbank-api/internal/service"
)

// SearchQuery: параметры GET /api/query
type SearchQuery struct {
	QueryString      string `form:"query_string"`
	Difficulties     string `form:"difficulties"`
	Categories       string `form:"categories"`
	Subcategories    string `form:"subcategories"`
	SetName          string `form:"set_name"`
	SearchType       string `form:"search_type"`
	QuestionType     string `form:"question_type"`
	MaxReturnLength  int    `form:"max_return_length"`
	Randomize        bool   `form:"randomize"`
	Regex            bool   `form:"regex"`
	ExactPhrase      bool   `form:"exact_phrase"`
	IgnoreDiacritics bool   `form:"ignore_diacritics"`
	PowermarkOnly    bool   `form:"powermark_only"`
	TossupPage       int    `form:"tossup_page"`
	BonusPage        int    `form:"bonus_page"`
	MinYear          int    `form:"min_year"`
	MaxYear          int    `form:"max_year"`
}

// ToParams преобразует запрос в параметры поиска
func (q SearchQuery) ToParams() (service.SearchParams, error) {
	difficulties, err := helper.ParseIntList(q.Difficulties)
	if err != nil {
		return service.SearchParams{}, fmt.Errorf("%w: difficulties: %v", apperrors.ErrValidation, err)
	}
	target, err := search.ParseTarget(q.SearchType)
	if err != nil {
		return service.SearchParams{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	questionType, err := service.ParseQuestionType(q.QuestionType)
	if err != nil {
		return service.SearchParams{}, err
	}

	return service.SearchParams{
		QueryString:      q.QueryString,
		Difficulties:     difficulties,
		Categories:       helper.SplitList(q.Categories),
		Subcategories:    helper.SplitList(q.Subcategories),
		SetName:          strings.TrimSpace(q.SetName),
		SearchType:       target,
		QuestionType:     questionType,
		MaxReturnLength:  q.MaxReturnLength,
		Randomize:        q.Randomize,
		Regex:            q.Regex,
		ExactPhrase:      q.ExactPhrase,
		IgnoreDiacritics: q.IgnoreDiacritics,
		PowermarkOnly:    q.PowermarkOnly,
		TossupPage:       q.TossupPage,
		BonusPage:        q.BonusPage,
		MinYear:          q.MinYear,
		MaxYear:          q.MaxYear,
	}, nil
}

// PacketQuery: параметры GET /api/packet
type PacketQuery struct {
	SetName string `form:"set_name"`
	// PacketNumber: строка: нечисловое значение дает пустой результат, а не ошибку
	PacketNumber             string `form:"packet_number"`
	QuestionTypes            string `form:"question_types"`
	ReplaceUnformattedAnswer *bool  `form:"replace_unformatted_answer"`
}

// ToParams преобразует запрос в параметры получения пакета
func (q PacketQuery) ToParams() (service.PacketParams, error) {
	kinds, err := parseKinds(q.QuestionTypes)
	if err != nil {
		return service.PacketParams{}, err
	}
	number, err := strconv.Atoi(strings.TrimSpace(q.PacketNumber))
	if err != nil {
		number = 0
	}
	return service.PacketParams{
		SetName:       q.SetName,
		PacketNumber:  number,
		QuestionTypes: kinds,
		RawAnswers:    !replaceAnswers(q.ReplaceUnformattedAnswer),
	}, nil
}

// SetQuery: параметры GET /api/set и /api/set/export
type SetQuery struct {
	SetName                  string `form:"set_name"`
	PacketNumbers            string `form:"packet_numbers"`
	Categories               string `form:"categories"`
	Subcategories            string `form:"subcategories"`
	QuestionType             string `form:"question_type"`
	ReplaceUnformattedAnswer *bool  `form:"replace_unformatted_answer"`
	Reverse                  bool   `form:"reverse"`
}

// ToParams преобразует запрос в параметры получения сета
func (q SetQuery) ToParams() (service.SetParams, error) {
	packets, err := helper.ParseIntList(q.PacketNumbers)
	if err != nil {
		return service.SetParams{}, fmt.Errorf("%w: packet_numbers: %v", apperrors.ErrValidation, err)
	}
	var kind entity.QuestionKind
	if strings.TrimSpace(q.QuestionType) != "" {
		kinds, err := parseKinds(q.QuestionType)
		if err != nil {
			return service.SetParams{}, err
		}
		if len(kinds) != 1 {
			return service.SetParams{}, fmt.Errorf("%w: question_type must be a single type", apperrors.ErrValidation)
		}
		kind = kinds[0]
	}
	return service.SetParams{
		SetName:       q.SetName,
		PacketNumbers: packets,
		Categories:    helper.SplitList(q.Categories),
		Subcategories: helper.SplitList(q.Subcategories),
		QuestionType:  kind,
		RawAnswers:    !replaceAnswers(q.ReplaceUnformattedAnswer),
		Reverse:       q.Reverse,
	}, nil
}

// RandomQuery: параметры GET /api/random-tossup и /api/random-bonus
type RandomQuery struct {
	Difficulties  string `form:"difficulties"`
	Categories    string `form:"categories"`
	Subcategories string `form:"subcategories"`
	Number        int    `form:"number"`
	MinYear       int    `form:"min_year"`
	MaxYear       int    `form:"max_year"`
	PowermarkOnly bool   `form:"powermark_only"`
	BonusLength   int    `form:"bonus_length"`
}

// ToParams преобразует запрос в параметры случайной выборки
func (q RandomQuery) ToParams() (service.RandomParams, error) {
	difficulties, err := helper.ParseIntList(q.Difficulties)
	if err != nil {
		return service.RandomParams{}, fmt.Errorf("%w: difficulties: %v", apperrors.ErrValidation, err)
	}
	return service.RandomParams{
		Difficulties:  difficulties,
		Categories:    helper.SplitList(q.Categories),
		Subcategories: helper.SplitList(q.Subcategories),
		Number:        q.Number,
		MinYear:       q.MinYear,
		MaxYear:       q.MaxYear,
		PowermarkOnly: q.PowermarkOnly,
		BonusLength:   q.BonusLength,
	}, nil
}

// ReportRequest: тело POST /api/report-question
type ReportRequest struct {
	ID          string `json:"id" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// ReportResponse: результат жалобы
type ReportResponse struct {
	Reported bool `json:"reported"`
}

// UpdateSubcategoryRequest: тело PUT /api/admin/update-subcategory
type UpdateSubcategoryRequest struct {
	ID          string `json:"id" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Subcategory string `json:"subcategory" binding:"required"`
	// ClearReports по умолчанию true
	ClearReports *bool `json:"clear_reports"`
}

// SetListResponse: список названий сетов
type SetListResponse struct {
	SetList []string `json:"set_list"`
}

// NumPacketsResponse: количество пакетов в сете
type NumPacketsResponse struct {
	NumPackets int64 `json:"num_packets"`
}

// RandomTossupsResponse: случайные тоссапы
type RandomTossupsResponse struct {
	Tossups []entity.Tossup `json:"tossups"`
}

// RandomBonusesResponse: случайные бонусы
type RandomBonusesResponse struct {
	Bonuses []entity.Bonus `json:"bonuses"`
}

// SetResponse: вопросы сета одного типа
type SetResponse struct {
	Type      entity.QuestionKind `json:"type"`
	Questions any                 `json:"questions"`
	Count     int                 `json:"count"`
}

// NewSetResponse создает DTO для вопросов сета
func NewSetResponse(set *service.SetQuestions) SetResponse {
	return SetResponse{Type: set.Kind, Questions: set.Questions(), Count: set.Len()}
}

func replaceAnswers(flag *bool) bool {
	return flag == nil || *flag
}

// parseKinds разбирает список типов вопросов; допускаются формы во множественном числе
func parseKinds(raw string) ([]entity.QuestionKind, error) {
	var kinds []entity.QuestionKind
	for _, item := range helper.SplitList(raw) {
		switch strings.ToLower(item) {
		case "tossup", "tossups":
			kinds = append(kinds, entity.KindTossup)
		case "bonus", "bonuses":
			kinds = append(kinds, entity.KindBonus)
		default:
			return nil, fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidation, item)
		}
	}
	return kinds, nil
}
