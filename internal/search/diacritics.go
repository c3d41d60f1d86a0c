package search

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Группы эквивалентных глифов. Порядок групп важен: замены применяются последовательно.
var baseCharacterGroups = []string{
	"[aàáâǎäãåāăạả]",
	"[cçćčɔ́ĉƈ]",
	"[eèéêëēėęĕẹẻếềể]",
	"[iîïíīįìĩỉĭịỉ]",
	"[nñńŉňŋňņṅñ]",
	"[oôöòóøōõơồổỗộơớờở]",
	"[sśşšșṡŝ]",
	"[uûüùúūưũŭůųủǖǘǚ]",
	"[yÿŷýỳỷ]",
	"[zžźż]",
}

var extendedOnlyGroups = []string{
	"[bḃḅ]",
	"[dďḋḍđδð]",
	"[fḟƒ]",
	"[gğģǧġĝǥ]",
	"[hḣĥħḫ\"]",
	"[jĵȷǰ]",
	"[kķǩƙ]",
	"[lļľłĺļľł₺]",
	"[mṁṃ]",
	"[pṗ]",
	"[rŕřṙ]",
	"[tţťțṫŧťṯ]",
	"[wẇŵ]",
	"[xẋ]",
}

const (
	// coarseFoldThreshold: при большем числе "складываемых" символов используется грубая свертка
	coarseFoldThreshold = 10
	// coarseFoldLengthGuard: запас длины, без которого грубая свертка не применяется
	coarseFoldLengthGuard = 3
)

type foldGroup struct {
	class string
	re    *regexp.Regexp
}

// diacriticFolder превращает буквы в классы символов со всеми вариантами диакритики
type diacriticFolder struct {
	groups []foldGroup
	all    *regexp.Regexp
	base   *regexp.Regexp
}

func newDiacriticFolder() *diacriticFolder {
	extended := append(append([]string(nil), extendedOnlyGroups...), baseCharacterGroups...)

	f := &diacriticFolder{
		all:  regexp.MustCompile("(?i)" + joinClasses(extended)),
		base: regexp.MustCompile("(?i)" + joinClasses(baseCharacterGroups)),
	}
	for _, class := range extended {
		f.groups = append(f.groups, foldGroup{class: class, re: regexp.MustCompile("(?i)" + class)})
	}
	return f
}

func joinClasses(classes []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, c := range classes {
		b.WriteString(c[1 : len(c)-1])
	}
	b.WriteByte(']')
	return b.String()
}

// fold применяет эвристику к шаблону. Защищенные токены (экранированные символы,
// скобочные выражения) не изменяются, но учитываются в длине.
func (f *diacriticFolder) fold(pattern string, regexMode bool) string {
	matching := len(f.all.FindAllStringIndex(pattern, -1))
	if matching > coarseFoldThreshold {
		if utf16Len(pattern) > matching+coarseFoldLengthGuard {
			return rewriteLiterals(pattern, regexMode, func(r rune) string {
				s := string(r)
				if f.base.MatchString(s) {
					return "."
				}
				return s
			})
		}
		return pattern
	}

	return rewriteLiterals(pattern, regexMode, func(r rune) string {
		s := string(r)
		for _, g := range f.groups {
			if g.re.MatchString(s) {
				return g.class
			}
		}
		return s
	})
}

// utf16Len возвращает длину строки в кодовых единицах UTF-16
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// rewriteLiterals заменяет каждый литеральный символ шаблона результатом fn.
// Экранирования вида \x всегда копируются как есть. В режиме регулярных выражений
// также сохраняются скобочные выражения [...] и флаговые группы (?flags).
func rewriteLiterals(pattern string, regexMode bool, fn func(rune) string) string {
	var b strings.Builder
	b.Grow(len(pattern))

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			b.WriteRune(r)
			b.WriteRune(runes[i+1])
			i++
		case regexMode && r == '[':
			end := bracketEnd(runes, i)
			b.WriteString(string(runes[i : end+1]))
			i = end
		case regexMode && r == '(' && i+1 < len(runes) && runes[i+1] == '?':
			j := groupPrefixEnd(runes, i+2)
			b.WriteString(string(runes[i:j]))
			i = j - 1
		default:
			b.WriteString(fn(r))
		}
	}
	return b.String()
}

// bracketEnd возвращает индекс закрывающей скобки выражения, начинающегося в start.
// Для незакрытого выражения возвращается индекс последнего символа.
func bracketEnd(runes []rune, start int) int {
	i := start + 1
	if i < len(runes) && runes[i] == '^' {
		i++
	}
	if i < len(runes) && runes[i] == ']' {
		i++
	}
	for ; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case ']':
			return i
		}
	}
	return len(runes) - 1
}

// groupPrefixEnd пропускает служебную часть группы после "(?": флаги, имя группы
// или маркер просмотра вперед. Возвращает индекс первого символа тела группы.
func groupPrefixEnd(runes []rune, j int) int {
	if j >= len(runes) {
		return j
	}
	switch runes[j] {
	case '=', '!', ':':
		return j + 1
	case '<', 'P':
		for j < len(runes) && runes[j] != '>' {
			j++
		}
		return min(j+1, len(runes))
	}
	for j < len(runes) && (runes[j] == '-' || (runes[j] >= 'a' && runes[j] <= 'z') || (runes[j] >= 'A' && runes[j] <= 'Z')) {
		j++
	}
	if j < len(runes) && (runes[j] == ':' || runes[j] == ')') {
		j++
	}
	return j
}
