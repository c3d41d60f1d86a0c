// Package search собирает поисковые запросы по базе вопросов: нормализует строку поиска,
// строит предикаты фильтрации и конвейеры выборки для хранилища.
package search

import (
	"regexp"
	"strings"
)

// NormalizeOptions задает режимы обработки строки поиска
type NormalizeOptions struct {
	// Regex: строка уже является регулярным выражением и не экранируется
	Regex bool
	// IgnoreDiacritics: буквы сопоставляются со всеми вариантами с диакритикой
	IgnoreDiacritics bool
	// ExactPhrase: шаблон обрамляется границами слова
	ExactPhrase bool
}

// metaCharacters: символы, экранируемые в литеральном режиме
var metaCharacters = regexp.MustCompile(`[.*+?^${}()|[\]\\]`)

// leadingFlags: встроенные флаги в начале выражения, например (?i)
var leadingFlags = regexp.MustCompile(`^(?:\(\?[a-zA-Z]+\))+`)

// Normalizer превращает пользовательский ввод в шаблон регулярного выражения.
// Безопасен для конкурентного использования.
type Normalizer struct {
	folder *diacriticFolder
}

// NewNormalizer создает новый нормализатор
func NewNormalizer() *Normalizer {
	return &Normalizer{folder: newDiacriticFolder()}
}

// Normalize возвращает шаблон для строки поиска. Пустая (после обрезки пробелов)
// строка дает пустой шаблон во всех режимах: такой запрос не ограничивает выборку.
func (n *Normalizer) Normalize(raw string, opts NormalizeOptions) string {
	pattern := strings.TrimSpace(raw)
	if pattern == "" {
		return ""
	}

	if !opts.Regex {
		pattern = EscapeRegex(pattern)
	}

	if opts.IgnoreDiacritics {
		pattern = n.folder.fold(pattern, opts.Regex)
	}

	if opts.ExactPhrase {
		if opts.Regex {
			// Флаги допустимы только в начале выражения, поэтому остаются перед границей
			flags := leadingFlags.FindString(pattern)
			pattern = flags + `\b(?:` + pattern[len(flags):] + `)\b`
		} else {
			pattern = `\b` + pattern + `\b`
		}
	}

	return pattern
}

// EscapeRegex экранирует метасимволы регулярных выражений
func EscapeRegex(s string) string {
	return metaCharacters.ReplaceAllString(s, `\$0`)
}
