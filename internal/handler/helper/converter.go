package helper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/questionbank-api/internal/domain/entity"
)

// SplitList разбирает список через запятую, отбрасывая пустые элементы
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseIntList разбирает список целых чисел через запятую
func ParseIntList(raw string) ([]int, error) {
	items := SplitList(raw)
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", item)
		}
		out = append(out, n)
	}
	return out, nil
}

// ExportHeaders: заголовки колонок экспорта сета
var ExportHeaders = []string{"Пакет", "Номер", "Категория", "Подкатегория", "Сложность", "Текст", "Ответ"}

// TossupRow преобразует тоссап в строку экспорта
func TossupRow(t entity.Tossup) []string {
	return []string{
		strconv.Itoa(t.Packet.Number),
		strconv.Itoa(t.QuestionNumber),
		t.Category,
		t.Subcategory,
		strconv.Itoa(t.Difficulty),
		SanitizeForExcel(t.Question),
		SanitizeForExcel(t.Answer),
	}
}

// BonusRow преобразует бонус в строку экспорта. Части и ответы
// склеиваются построчно с префиксом номера части.
func BonusRow(b entity.Bonus) []string {
	var text, answers strings.Builder
	text.WriteString(b.Leadin)
	for i, part := range b.Parts {
		fmt.Fprintf(&text, "\n[%d] %s", i+1, part)
	}
	for i, ans := range b.Answers {
		if i > 0 {
			answers.WriteString("\n")
		}
		fmt.Fprintf(&answers, "[%d] %s", i+1, ans)
	}
	return []string{
		strconv.Itoa(b.Packet.Number),
		strconv.Itoa(b.QuestionNumber),
		b.Category,
		b.Subcategory,
		strconv.Itoa(b.Difficulty),
		SanitizeForExcel(text.String()),
		SanitizeForExcel(answers.String()),
	}
}

// SanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func SanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
