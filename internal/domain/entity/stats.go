package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TossupStat: денормализованная запись статистики пользователя по тоссапу.
// Category/Subcategory копируются из вопроса и должны обновляться при его перекатегоризации.
type TossupStat struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	QuestionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tossup_id"`
	Category    string    `gorm:"size:64;not null" json:"category"`
	Subcategory string    `gorm:"size:64;not null" json:"subcategory"`
	Difficulty  int       `json:"difficulty"`
	SetName     string    `gorm:"size:255" json:"set_name"`
	Celerity    float64   `json:"celerity"`
	Points      int       `json:"points"`
	IsCorrect   bool      `json:"is_correct"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (TossupStat) TableName() string {
	return "tossup_stats"
}

// BonusStat: денормализованная запись статистики пользователя по бонусу
type BonusStat struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	QuestionID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"bonus_id"`
	Category      string        `gorm:"size:64;not null" json:"category"`
	Subcategory   string        `gorm:"size:64;not null" json:"subcategory"`
	Difficulty    int           `json:"difficulty"`
	SetName       string        `gorm:"size:255" json:"set_name"`
	PointsPerPart pq.Int64Array `gorm:"type:integer[]" json:"points_per_part"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (BonusStat) TableName() string {
	return "bonus_stats"
}
