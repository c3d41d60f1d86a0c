package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/questionbank-api/internal/domain/query"
)

// columnKind описывает тип колонки для трансляции условий
type columnKind int

const (
	scalarColumn columnKind = iota
	arrayColumn
	reportsColumn
)

type column struct {
	name string
	kind columnKind
}

// questionColumns сопоставляет поля документа вопроса с колонками таблиц tossups/bonuses
var questionColumns = map[string]column{
	query.FieldID:             {"id", scalarColumn},
	query.FieldQuestion:       {"question", scalarColumn},
	query.FieldAnswer:         {"answer", scalarColumn},
	query.FieldLeadin:         {"leadin", scalarColumn},
	query.FieldParts:          {"parts", arrayColumn},
	query.FieldAnswers:        {"answers", arrayColumn},
	query.FieldCategory:       {"category", scalarColumn},
	query.FieldSubcategory:    {"subcategory", scalarColumn},
	query.FieldDifficulty:     {"difficulty", scalarColumn},
	query.FieldQuestionNumber: {"question_number", scalarColumn},
	query.FieldSetName:        {"set_name", scalarColumn},
	query.FieldSetYear:        {"set_year", scalarColumn},
	query.FieldPacketID:       {"packet_id", scalarColumn},
	query.FieldPacketNumber:   {"packet_number", scalarColumn},
	query.FieldReports:        {"reports", reportsColumn},
	query.FieldReportReason:   {"reports", reportsColumn},
	query.FieldUpdatedAt:      {"updated_at", scalarColumn},
}

// statColumns сопоставляет поля записей статистики с колонками tossup_stats/bonus_stats
var statColumns = map[string]column{
	query.FieldStatQuestionID: {"question_id", scalarColumn},
	query.FieldStatUserID:     {"user_id", scalarColumn},
	query.FieldCategory:       {"category", scalarColumn},
	query.FieldSubcategory:    {"subcategory", scalarColumn},
}

// translator переводит хранилище-независимые фильтры в SQL для PostgreSQL
type translator struct {
	columns map[string]column
}

func (t translator) column(field string) (column, error) {
	c, ok := t.columns[field]
	if !ok {
		return column{}, fmt.Errorf("unknown field %q", field)
	}
	return c, nil
}

// where возвращает SQL-выражение и аргументы для фильтра. Пустой фильтр дает пустую строку.
func (t translator) where(f query.Filter) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, c := range f.Clauses() {
		sql, a, err := t.clause(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return strings.Join(parts, " AND "), args, nil
}

func (t translator) clause(c query.Clause) (string, []any, error) {
	switch c := c.(type) {
	case query.Regex:
		op := "~"
		if c.IgnoreCase {
			op = "~*"
		}
		pattern := ToPostgresRegex(c.Pattern)

		var (
			ors  []string
			args []any
		)
		for _, field := range c.Fields {
			col, err := t.column(field)
			if err != nil {
				return "", nil, err
			}
			switch col.kind {
			case scalarColumn:
				ors = append(ors, fmt.Sprintf("%s %s ?", col.name, op))
			case arrayColumn:
				ors = append(ors, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS elem WHERE elem %s ?)", col.name, op))
			default:
				return "", nil, fmt.Errorf("field %q does not support pattern matching", field)
			}
			args = append(args, pattern)
		}
		if len(ors) == 0 {
			return "", nil, fmt.Errorf("pattern clause without fields")
		}
		return "(" + strings.Join(ors, " OR ") + ")", args, nil

	case query.In:
		col, err := t.column(c.Field)
		if err != nil {
			return "", nil, err
		}
		if col.kind != scalarColumn {
			return "", nil, fmt.Errorf("field %q does not support set membership", c.Field)
		}
		if len(c.Values) == 0 {
			return "FALSE", nil, nil
		}
		return col.name + " IN ?", []any{c.Values}, nil

	case query.Eq:
		col, err := t.column(c.Field)
		if err != nil {
			return "", nil, err
		}
		switch col.kind {
		case scalarColumn:
			return col.name + " = ?", []any{c.Value}, nil
		case arrayColumn:
			return "? = ANY(" + col.name + ")", []any{c.Value}, nil
		default:
			if c.Field != query.FieldReportReason {
				return "", nil, fmt.Errorf("field %q does not support equality", c.Field)
			}
			probe, err := json.Marshal([]map[string]any{{"reason": c.Value}})
			if err != nil {
				return "", nil, err
			}
			return col.name + " @> ?::jsonb", []any{string(probe)}, nil
		}

	case query.Range:
		col, err := t.column(c.Field)
		if err != nil {
			return "", nil, err
		}
		var (
			conds []string
			args  []any
		)
		if c.Min != nil {
			conds = append(conds, col.name+" >= ?")
			args = append(args, *c.Min)
		}
		if c.Max != nil {
			conds = append(conds, col.name+" <= ?")
			args = append(args, *c.Max)
		}
		if len(conds) == 0 {
			return "TRUE", nil, nil
		}
		return strings.Join(conds, " AND "), args, nil

	case query.Size:
		col, err := t.column(c.Field)
		if err != nil {
			return "", nil, err
		}
		if col.kind != arrayColumn {
			return "", nil, fmt.Errorf("field %q is not an array", c.Field)
		}
		return "cardinality(" + col.name + ") = ?", []any{c.Len}, nil
	}
	return "", nil, fmt.Errorf("unsupported clause %T", c)
}

// orderBy возвращает выражение сортировки
func (t translator) orderBy(keys []query.SortKey) ([]clause.OrderByColumn, error) {
	out := make([]clause.OrderByColumn, 0, len(keys))
	for _, k := range keys {
		col, err := t.column(k.Field)
		if err != nil {
			return nil, err
		}
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: col.name}, Desc: k.Desc})
	}
	return out, nil
}

// assignments переводит обновление в набор присваиваний колонок
func (t translator) assignments(u query.Update) (map[string]any, error) {
	out := make(map[string]any, len(u.Set)+len(u.Push)+len(u.Unset))

	for field, value := range u.Set {
		col, err := t.column(field)
		if err != nil {
			return nil, err
		}
		if col.kind != scalarColumn {
			return nil, fmt.Errorf("field %q cannot be assigned", field)
		}
		out[col.name] = value
	}

	for field, value := range u.Push {
		col, err := t.column(field)
		if err != nil {
			return nil, err
		}
		switch col.kind {
		case reportsColumn:
			item, err := json.Marshal([]any{value})
			if err != nil {
				return nil, fmt.Errorf("failed to encode %q element: %w", field, err)
			}
			out[col.name] = gorm.Expr("COALESCE("+col.name+", '[]'::jsonb) || ?::jsonb", string(item))
		case arrayColumn:
			out[col.name] = gorm.Expr("array_append("+col.name+", ?)", value)
		default:
			return nil, fmt.Errorf("field %q is not an array", field)
		}
	}

	for _, field := range u.Unset {
		col, err := t.column(field)
		if err != nil {
			return nil, err
		}
		switch col.kind {
		case reportsColumn:
			out[col.name] = gorm.Expr("'[]'::jsonb")
		case arrayColumn:
			out[col.name] = gorm.Expr("'{}'")
		default:
			out[col.name] = gorm.Expr("NULL")
		}
	}
	return out, nil
}

// ToPostgresRegex переводит границы слова \b и \B в синтаксис PostgreSQL (\y, \Y).
// Остальные экранирования копируются без изменений.
func ToPostgresRegex(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '\\' && i+1 < len(pattern) {
			next := pattern[i+1]
			switch next {
			case 'b':
				b.WriteString(`\y`)
			case 'B':
				b.WriteString(`\Y`)
			default:
				b.WriteByte(ch)
				b.WriteByte(next)
			}
			i++
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
