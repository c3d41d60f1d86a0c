package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/yourusername/questionbank-api/internal/domain/repository"
)

// SetRegistry: канонический список имен сетов, загружаемый один раз при старте.
// После создания не меняется.
type SetRegistry struct {
	names []string
	index map[string]struct{}
}

// NewSetRegistry строит реестр; имена сортируются по убыванию, дубликаты отбрасываются
func NewSetRegistry(names []string) *SetRegistry {
	r := &SetRegistry{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if _, dup := r.index[name]; dup || name == "" {
			continue
		}
		r.index[name] = struct{}{}
		r.names = append(r.names, name)
	}
	slices.SortFunc(r.names, func(a, b string) int { return strings.Compare(b, a) })
	return r
}

// LoadSetRegistry читает имена сетов из хранилища
func LoadSetRegistry(ctx context.Context, sets repository.SetRepository) (*SetRegistry, error) {
	names, err := sets.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load set names: %w", err)
	}
	return NewSetRegistry(names), nil
}

// Names возвращает копию списка имен
func (r *SetRegistry) Names() []string {
	return append([]string{}, r.names...)
}

// Contains проверяет, известен ли сет
func (r *SetRegistry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Len возвращает число сетов
func (r *SetRegistry) Len() int {
	return len(r.names)
}
