package memory

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/questionbank-api/internal/domain/query"
)

// wordBoundary заменяет \b: граница слова с учетом букв Unicode.
// Выражение потребляет соседний символ, что допустимо для проверки совпадения.
const wordBoundary = `(?:^|$|[^\p{L}\p{N}_])`

// patternCache хранит скомпилированные шаблоны
type patternCache struct {
	mu    sync.RWMutex
	items map[string]*regexp.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{items: make(map[string]*regexp.Regexp)}
}

func (c *patternCache) compile(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	key := pattern
	if ignoreCase {
		key = "(?i)" + pattern
	}

	c.mu.RLock()
	re, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	expr := translateBoundaries(pattern)
	if ignoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	c.items[key] = re
	c.mu.Unlock()
	return re, nil
}

// translateBoundaries заменяет \b на границу слова с учетом Unicode.
// В RE2 \b учитывает только ASCII, поэтому "café" не оканчивается на границе слова.
func translateBoundaries(pattern string) string {
	if !strings.Contains(pattern, `\b`) {
		return pattern
	}
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			if pattern[i+1] == 'b' {
				b.WriteString(wordBoundary)
			} else {
				b.WriteByte(pattern[i])
				b.WriteByte(pattern[i+1])
			}
			i++
			continue
		}
		b.WriteByte(pattern[i])
	}
	return b.String()
}

// accessor возвращает значение поля документа
type accessor[T any] func(doc *T, field string) (any, bool)

// matcher проверяет документы на соответствие фильтру
type matcher[T any] struct {
	get      accessor[T]
	patterns *patternCache
}

func (m matcher[T]) matches(doc *T, f query.Filter) (bool, error) {
	for _, c := range f.Clauses() {
		ok, err := m.matchClause(doc, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (m matcher[T]) matchClause(doc *T, c query.Clause) (bool, error) {
	switch c := c.(type) {
	case query.Regex:
		re, err := m.patterns.compile(c.Pattern, c.IgnoreCase)
		if err != nil {
			return false, err
		}
		for _, field := range c.Fields {
			v, ok := m.get(doc, field)
			if !ok {
				return false, fmt.Errorf("unknown field %q", field)
			}
			switch v := v.(type) {
			case string:
				if re.MatchString(v) {
					return true, nil
				}
			case []string:
				for _, s := range v {
					if re.MatchString(s) {
						return true, nil
					}
				}
			}
		}
		return false, nil

	case query.In:
		v, ok := m.get(doc, c.Field)
		if !ok {
			return false, fmt.Errorf("unknown field %q", c.Field)
		}
		for _, want := range c.Values {
			if equalValue(v, want) {
				return true, nil
			}
		}
		return false, nil

	case query.Eq:
		v, ok := m.get(doc, c.Field)
		if !ok {
			return false, fmt.Errorf("unknown field %q", c.Field)
		}
		return equalValue(v, c.Value), nil

	case query.Range:
		v, ok := m.get(doc, c.Field)
		if !ok {
			return false, fmt.Errorf("unknown field %q", c.Field)
		}
		n, ok := toInt64(v)
		if !ok {
			return false, fmt.Errorf("field %q is not numeric", c.Field)
		}
		if c.Min != nil && n < int64(*c.Min) {
			return false, nil
		}
		if c.Max != nil && n > int64(*c.Max) {
			return false, nil
		}
		return true, nil

	case query.Size:
		v, ok := m.get(doc, c.Field)
		if !ok {
			return false, fmt.Errorf("unknown field %q", c.Field)
		}
		arr, ok := v.([]string)
		if !ok {
			return false, fmt.Errorf("field %q is not an array", c.Field)
		}
		return len(arr) == c.Len, nil

	default:
		return false, fmt.Errorf("unsupported clause %T", c)
	}
}

// equalValue сравнивает значение поля с образцом. Для полей-массивов достаточно
// совпадения одного элемента.
func equalValue(fieldValue, want any) bool {
	if arr, ok := fieldValue.([]string); ok {
		for _, s := range arr {
			if equalValue(s, want) {
				return true
			}
		}
		return false
	}

	a, b := normalizeValue(fieldValue), normalizeValue(want)
	return a == b
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case uuid.UUID:
		return v.String()
	case time.Time:
		return v.UnixNano()
	}
	if n, ok := toInt64(v); ok {
		return n
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	default:
		return 0, false
	}
}

// compareValues упорядочивает значения одного поля: числа, строки и время
func compareValues(a, b any) int {
	if x, ok := toInt64(a); ok {
		y, _ := toInt64(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch x := a.(type) {
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}
