package memory

import (
	"fmt"
	"time"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
	"github.com/yourusername/questionbank-api/internal/domain/query"
)

func metaField(m *entity.QuestionMeta, field string) (any, bool) {
	switch field {
	case query.FieldID:
		return m.ID, true
	case query.FieldCategory:
		return m.Category, true
	case query.FieldSubcategory:
		return m.Subcategory, true
	case query.FieldDifficulty:
		return m.Difficulty, true
	case query.FieldQuestionNumber:
		return m.QuestionNumber, true
	case query.FieldSetName:
		return m.Set.Name, true
	case query.FieldSetYear:
		return m.Set.Year, true
	case query.FieldPacketID:
		return m.Packet.ID, true
	case query.FieldPacketNumber:
		return m.Packet.Number, true
	case query.FieldReportReason:
		reasons := make([]string, len(m.Reports))
		for i, r := range m.Reports {
			reasons[i] = r.Reason
		}
		return reasons, true
	case query.FieldUpdatedAt:
		return m.UpdatedAt, true
	}
	return nil, false
}

func tossupField(t *entity.Tossup, field string) (any, bool) {
	switch field {
	case query.FieldQuestion:
		return t.Question, true
	case query.FieldAnswer:
		return t.Answer, true
	}
	return metaField(&t.QuestionMeta, field)
}

func bonusField(b *entity.Bonus, field string) (any, bool) {
	switch field {
	case query.FieldLeadin:
		return b.Leadin, true
	case query.FieldParts:
		return []string(b.Parts), true
	case query.FieldAnswers:
		return []string(b.Answers), true
	}
	return metaField(&b.QuestionMeta, field)
}

func tossupStatField(s *entity.TossupStat, field string) (any, bool) {
	switch field {
	case query.FieldStatQuestionID:
		return s.QuestionID, true
	case query.FieldStatUserID:
		return s.UserID, true
	case query.FieldCategory:
		return s.Category, true
	case query.FieldSubcategory:
		return s.Subcategory, true
	}
	return nil, false
}

func bonusStatField(s *entity.BonusStat, field string) (any, bool) {
	switch field {
	case query.FieldStatQuestionID:
		return s.QuestionID, true
	case query.FieldStatUserID:
		return s.UserID, true
	case query.FieldCategory:
		return s.Category, true
	case query.FieldSubcategory:
		return s.Subcategory, true
	}
	return nil, false
}

// mutator применяет обновление к документу
type mutator[T any] func(doc *T, u query.Update) error

func applyMeta(m *entity.QuestionMeta, u query.Update) error {
	for field, value := range u.Set {
		switch field {
		case query.FieldCategory:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %q expects string, got %T", field, value)
			}
			m.Category = s
		case query.FieldSubcategory:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %q expects string, got %T", field, value)
			}
			m.Subcategory = s
		case query.FieldUpdatedAt:
			ts, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("field %q expects time, got %T", field, value)
			}
			m.UpdatedAt = ts
		default:
			return fmt.Errorf("field %q cannot be set", field)
		}
	}

	for field, value := range u.Push {
		if field != query.FieldReports {
			return fmt.Errorf("field %q is not an appendable array", field)
		}
		r, ok := value.(entity.Report)
		if !ok {
			return fmt.Errorf("field %q expects report, got %T", field, value)
		}
		reports := make(entity.ReportList, 0, len(m.Reports)+1)
		m.Reports = append(append(reports, m.Reports...), r)
	}

	for _, field := range u.Unset {
		if field != query.FieldReports {
			return fmt.Errorf("field %q cannot be unset", field)
		}
		m.Reports = nil
	}
	return nil
}

func applyTossup(t *entity.Tossup, u query.Update) error {
	return applyMeta(&t.QuestionMeta, u)
}

func applyBonus(b *entity.Bonus, u query.Update) error {
	return applyMeta(&b.QuestionMeta, u)
}

func applyStatCategory(category, subcategory *string, u query.Update) error {
	if len(u.Push) > 0 || len(u.Unset) > 0 {
		return fmt.Errorf("statistics records support only field assignment")
	}
	for field, value := range u.Set {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q expects string, got %T", field, value)
		}
		switch field {
		case query.FieldCategory:
			*category = s
		case query.FieldSubcategory:
			*subcategory = s
		default:
			return fmt.Errorf("field %q cannot be set", field)
		}
	}
	return nil
}

func applyTossupStat(s *entity.TossupStat, u query.Update) error {
	return applyStatCategory(&s.Category, &s.Subcategory, u)
}

func applyBonusStat(s *entity.BonusStat, u query.Update) error {
	return applyStatCategory(&s.Category, &s.Subcategory, u)
}
