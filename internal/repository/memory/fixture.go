package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
)

// Fixture: начальное содержимое хранилища в формате JSON
type Fixture struct {
	Sets        []entity.Set        `json:"sets"`
	Packets     []entity.Packet     `json:"packets"`
	Tossups     []entity.Tossup     `json:"tossups"`
	Bonuses     []entity.Bonus      `json:"bonuses"`
	TossupStats []entity.TossupStat `json:"tossup_stats"`
	BonusStats  []entity.BonusStat  `json:"bonus_stats"`
}

// Load добавляет содержимое фикстуры в хранилище
func (s *Store) Load(r io.Reader) error {
	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("failed to decode fixture: %w", err)
	}

	if err := s.AddBonuses(fx.Bonuses...); err != nil {
		return err
	}
	s.AddSets(fx.Sets...)
	s.AddPackets(fx.Packets...)
	s.AddTossups(fx.Tossups...)
	s.AddTossupStats(fx.TossupStats...)
	s.AddBonusStats(fx.BonusStats...)
	return nil
}

// LoadFile загружает фикстуру из файла
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	return s.Load(f)
}
