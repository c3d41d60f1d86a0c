// Package taxonomy содержит неизменяемую классификацию вопросов:
// список категорий, список подкатегорий и отображение подкатегория → категория.
// Таксономия загружается один раз при старте процесса и передается компонентам явно.
package taxonomy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Group описывает одну категорию вместе с ее подкатегориями
type Group struct {
	Category      string   `yaml:"name"`
	Subcategories []string `yaml:"subcategories"`
}

// DifficultyRange задает допустимый диапазон сложности
type DifficultyRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// File: формат YAML-файла таксономии
type File struct {
	Difficulties DifficultyRange `yaml:"difficulties"`
	Categories   []Group         `yaml:"categories"`
}

// Taxonomy: неизменяемая после создания классификация.
// Все методы безопасны для конкурентного использования.
type Taxonomy struct {
	categories    []string
	subcategories []string
	subToCategory map[string]string
	categorySet   map[string]struct{}
	difficulties  DifficultyRange
}

// New строит таксономию и проверяет, что каждая подкатегория принадлежит ровно одной категории
func New(groups []Group, difficulties DifficultyRange) (*Taxonomy, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("taxonomy must contain at least one category")
	}
	if difficulties.Min < 1 || difficulties.Max < difficulties.Min {
		return nil, fmt.Errorf("invalid difficulty range %d..%d", difficulties.Min, difficulties.Max)
	}

	t := &Taxonomy{
		subToCategory: make(map[string]string),
		categorySet:   make(map[string]struct{}, len(groups)),
		difficulties:  difficulties,
	}
	for _, g := range groups {
		if g.Category == "" {
			return nil, fmt.Errorf("category name must not be empty")
		}
		if _, dup := t.categorySet[g.Category]; dup {
			return nil, fmt.Errorf("duplicate category %q", g.Category)
		}
		t.categorySet[g.Category] = struct{}{}
		t.categories = append(t.categories, g.Category)

		for _, sub := range g.Subcategories {
			if owner, dup := t.subToCategory[sub]; dup {
				return nil, fmt.Errorf("subcategory %q belongs to both %q and %q", sub, owner, g.Category)
			}
			t.subToCategory[sub] = g.Category
			t.subcategories = append(t.subcategories, sub)
		}
	}
	return t, nil
}

// Load читает таксономию из YAML-файла
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML-представление таксономии. Неизвестные поля считаются ошибкой.
func Parse(data []byte) (*Taxonomy, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse taxonomy yaml: %w", err)
	}
	if f.Difficulties == (DifficultyRange{}) {
		f.Difficulties = defaultDifficulties
	}
	return New(f.Categories, f.Difficulties)
}

// Categories возвращает копию канонического списка категорий
func (t *Taxonomy) Categories() []string {
	return append([]string(nil), t.categories...)
}

// Subcategories возвращает копию канонического списка подкатегорий
func (t *Taxonomy) Subcategories() []string {
	return append([]string(nil), t.subcategories...)
}

// CategoryOf возвращает категорию, к которой относится подкатегория
func (t *Taxonomy) CategoryOf(subcategory string) (string, bool) {
	category, ok := t.subToCategory[subcategory]
	return category, ok
}

// IsCategory проверяет, что категория известна
func (t *Taxonomy) IsCategory(category string) bool {
	_, ok := t.categorySet[category]
	return ok
}

// IsSubcategory проверяет, что подкатегория известна
func (t *Taxonomy) IsSubcategory(subcategory string) bool {
	_, ok := t.subToCategory[subcategory]
	return ok
}

// Difficulties возвращает все допустимые уровни сложности по возрастанию
func (t *Taxonomy) Difficulties() []int {
	out := make([]int, 0, t.difficulties.Max-t.difficulties.Min+1)
	for d := t.difficulties.Min; d <= t.difficulties.Max; d++ {
		out = append(out, d)
	}
	return out
}

// IsDifficulty проверяет, что уровень сложности входит в допустимый диапазон
func (t *Taxonomy) IsDifficulty(d int) bool {
	return d >= t.difficulties.Min && d <= t.difficulties.Max
}
