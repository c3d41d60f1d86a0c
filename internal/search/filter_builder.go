package search

import (
	"fmt"
	"strings"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
)

// Target определяет, по какой стороне вопроса ведется текстовый поиск
type Target string

const (
	TargetQuestion Target = "question"
	TargetAnswer   Target = "answer"
	TargetAll      Target = "all"
)

// ParseTarget разбирает сторону поиска. Пустая строка означает поиск по вопросу.
func ParseTarget(s string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case "", TargetQuestion:
		return TargetQuestion, nil
	case TargetAnswer:
		return TargetAnswer, nil
	case TargetAll, "both":
		return TargetAll, nil
	default:
		return "", fmt.Errorf("unknown search target %q", s)
	}
}

// powerMarkPattern совпадает с power-разделителем в тексте тоссапа
const powerMarkPattern = `\(\*\)`

// Criteria: необязательные ограничения выборки. Нулевые значения не ограничивают.
type Criteria struct {
	// Pattern: нормализованный шаблон; пустой шаблон не добавляет текстового условия
	Pattern       string
	Target        Target
	Difficulties  []int
	Categories    []string
	Subcategories []string
	SetName       string
	MinYear       int
	MaxYear       int
	// PowermarkOnly учитывается только для тоссапов
	PowermarkOnly bool
	// BonusLength > 0 ограничивает число частей бонуса
	BonusLength int
}

// textFields возвращает поля, по которым ищется текст для типа вопроса и стороны поиска
func textFields(kind entity.QuestionKind, target Target) []string {
	question, answer := target != TargetAnswer, target != TargetQuestion
	var fields []string
	switch kind {
	case entity.KindTossup:
		if question {
			fields = append(fields, query.FieldQuestion)
		}
		if answer {
			fields = append(fields, query.FieldAnswer)
		}
	case entity.KindBonus:
		if question {
			fields = append(fields, query.FieldParts, query.FieldLeadin)
		}
		if answer {
			fields = append(fields, query.FieldAnswers)
		}
	}
	return fields
}

// BuildFilter собирает конъюнкцию всех заданных ограничений для коллекции kind.
// Один и тот же фильтр используется и для выборки, и для подсчета.
func BuildFilter(kind entity.QuestionKind, c Criteria) query.Filter {
	var clauses []query.Clause

	if c.Pattern != "" {
		if fields := textFields(kind, c.Target); len(fields) > 0 {
			clauses = append(clauses, query.Regex{Fields: fields, Pattern: c.Pattern, IgnoreCase: true})
		}
	}

	if len(c.Difficulties) > 0 {
		clauses = append(clauses, query.InInts(query.FieldDifficulty, c.Difficulties))
	}
	if len(c.Categories) > 0 {
		clauses = append(clauses, query.InStrings(query.FieldCategory, c.Categories))
	}
	if len(c.Subcategories) > 0 {
		clauses = append(clauses, query.InStrings(query.FieldSubcategory, c.Subcategories))
	}
	if c.SetName != "" {
		clauses = append(clauses, query.Eq{Field: query.FieldSetName, Value: c.SetName})
	}

	if c.MinYear > 0 || c.MaxYear > 0 {
		r := query.Range{Field: query.FieldSetYear}
		if c.MinYear > 0 {
			r.Min = query.IntPtr(c.MinYear)
		}
		if c.MaxYear > 0 {
			r.Max = query.IntPtr(c.MaxYear)
		}
		clauses = append(clauses, r)
	}

	if c.PowermarkOnly && kind == entity.KindTossup {
		clauses = append(clauses, query.Regex{Fields: []string{query.FieldQuestion}, Pattern: powerMarkPattern})
	}

	if c.BonusLength > 0 && kind == entity.KindBonus {
		clauses = append(clauses,
			query.Size{Field: query.FieldParts, Len: c.BonusLength},
			query.Size{Field: query.FieldAnswers, Len: c.BonusLength},
		)
	}

	return query.And(clauses...)
}
