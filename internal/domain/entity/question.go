package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// QuestionKind различает две коллекции вопросов с общим пространством ID
type QuestionKind string

const (
	KindTossup QuestionKind = "tossup"
	KindBonus  QuestionKind = "bonus"
)

// PowerMark: разделитель в тексте тоссапа, отделяющий "power"-сегмент
const PowerMark = "(*)"

// ParseKind разбирает строковое представление типа вопроса
func ParseKind(s string) (QuestionKind, error) {
	switch QuestionKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindTossup:
		return KindTossup, nil
	case KindBonus:
		return KindBonus, nil
	default:
		return "", fmt.Errorf("unknown question kind %q", s)
	}
}

// Report: жалоба пользователя на вопрос, видимая только модераторам
type Report struct {
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// ReportList - пользовательский тип для хранения жалоб в JSONB
type ReportList []Report

// Scan реализует интерфейс sql.Scanner для ReportList
func (r *ReportList) Scan(value interface{}) error {
	if value == nil {
		*r = ReportList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB reports: unsupported type")
	}

	if len(bytes) == 0 {
		*r = ReportList{}
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// Value реализует интерфейс driver.Valuer для ReportList
func (r ReportList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// PacketRef: денормализованная ссылка на пакет
type PacketRef struct {
	ID     uuid.UUID `gorm:"type:uuid" json:"id"`
	Name   string    `gorm:"size:255" json:"name"`
	Number int       `json:"number"`
}

// SetRef: денормализованная ссылка на сет
type SetRef struct {
	ID   uuid.UUID `gorm:"type:uuid" json:"id"`
	Name string    `gorm:"size:255" json:"name"`
	Year int       `json:"year"`
}

// QuestionMeta: поля, общие для тоссапов и бонусов
type QuestionMeta struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Category             string     `gorm:"size:64;not null" json:"category"`
	Subcategory          string     `gorm:"size:64;not null" json:"subcategory"`
	AlternateSubcategory string     `gorm:"size:64" json:"alternate_subcategory,omitempty"`
	Difficulty           int        `gorm:"not null" json:"difficulty"`
	QuestionNumber       int        `gorm:"not null" json:"question_number"`
	Packet               PacketRef  `gorm:"embedded;embeddedPrefix:packet_" json:"packet"`
	Set                  SetRef     `gorm:"embedded;embeddedPrefix:set_" json:"set"`
	Reports              ReportList `gorm:"type:jsonb;not null;default:'[]'" json:"reports,omitempty"` // Только для модераторов
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Tossup: вопрос из одного текста с одним ответом
type Tossup struct {
	QuestionMeta
	Question        string `gorm:"type:text;not null" json:"question"`
	Answer          string `gorm:"type:text;not null" json:"answer"`
	FormattedAnswer string `gorm:"type:text" json:"formatted_answer,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Tossup) TableName() string {
	return "tossups"
}

// ApplyFormattedAnswer подставляет форматированный ответ вместо простого, если он есть.
// Простой ответ при этом теряется только в возвращаемой копии, а не в хранилище.
func (t *Tossup) ApplyFormattedAnswer() {
	if t.FormattedAnswer != "" {
		t.Answer = t.FormattedAnswer
	}
}

// Bonus: вопрос из вводной части и нескольких частей, каждая со своим ответом
type Bonus struct {
	QuestionMeta
	Leadin           string         `gorm:"type:text;not null" json:"leadin"`
	Parts            pq.StringArray `gorm:"type:text[];not null" json:"parts"`
	Answers          pq.StringArray `gorm:"type:text[];not null" json:"answers"`
	FormattedAnswers pq.StringArray `gorm:"type:text[]" json:"formatted_answers,omitempty"`
	Values           pq.Int64Array  `gorm:"type:integer[]" json:"values,omitempty"`
	Difficulties     pq.StringArray `gorm:"type:text[]" json:"difficulties,omitempty"` // "e" | "m" | "h"
}

// TableName определяет имя таблицы для GORM
func (Bonus) TableName() string {
	return "bonuses"
}

// ErrBonusShape возвращается, если длины массивов бонуса не совпадают
var ErrBonusShape = errors.New("bonus arrays must have the same length as parts")

// Validate проверяет инварианты длины: answers, formatted_answers, values и difficulties
// (если заданы) должны совпадать по длине с parts
func (b *Bonus) Validate() error {
	n := len(b.Parts)
	if len(b.Answers) != n {
		return fmt.Errorf("%w: answers=%d parts=%d", ErrBonusShape, len(b.Answers), n)
	}
	if b.FormattedAnswers != nil && len(b.FormattedAnswers) != n {
		return fmt.Errorf("%w: formatted_answers=%d parts=%d", ErrBonusShape, len(b.FormattedAnswers), n)
	}
	if b.Values != nil && len(b.Values) != n {
		return fmt.Errorf("%w: values=%d parts=%d", ErrBonusShape, len(b.Values), n)
	}
	if b.Difficulties != nil && len(b.Difficulties) != n {
		return fmt.Errorf("%w: difficulties=%d parts=%d", ErrBonusShape, len(b.Difficulties), n)
	}
	return nil
}

// ApplyFormattedAnswers подставляет форматированные ответы вместо простых, если они есть
func (b *Bonus) ApplyFormattedAnswers() {
	if len(b.FormattedAnswers) > 0 {
		b.Answers = append(pq.StringArray(nil), b.FormattedAnswers...)
	}
}
