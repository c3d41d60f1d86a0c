package entity

import (
	"time"

	"github.com/google/uuid"
)

// Set: полный набор пакетов одного турнира
type Set struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Year       int       `gorm:"not null" json:"year"`
	Difficulty int       `gorm:"not null" json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Set) TableName() string {
	return "sets"
}

// Ref возвращает денормализованную ссылку на сет
func (s *Set) Ref() SetRef {
	return SetRef{ID: s.ID, Name: s.Name, Year: s.Year}
}

// Packet: упорядоченный набор тоссапов и бонусов внутри сета
type Packet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Number    int       `gorm:"not null" json:"number"`
	Set       SetRef    `gorm:"embedded;embeddedPrefix:set_" json:"set"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Packet) TableName() string {
	return "packets"
}

// Ref возвращает денормализованную ссылку на пакет
func (p *Packet) Ref() PacketRef {
	return PacketRef{ID: p.ID, Name: p.Name, Number: p.Number}
}
