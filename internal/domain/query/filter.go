// Package query описывает хранилище-независимые предикаты, конвейеры выборки и обновления.
// Репозитории (postgres, memory) транслируют эти структуры в свои примитивы.
package query

// Имена полей документа вопроса
const (
	FieldID             = "id"
	FieldQuestion       = "question"
	FieldAnswer         = "answer"
	FieldLeadin         = "leadin"
	FieldParts          = "parts"
	FieldAnswers        = "answers"
	FieldCategory       = "category"
	FieldSubcategory    = "subcategory"
	FieldDifficulty     = "difficulty"
	FieldQuestionNumber = "questionNumber"
	FieldSetName        = "set.name"
	FieldSetYear        = "set.year"
	FieldPacketID       = "packet.id"
	FieldPacketNumber   = "packet.number"
	FieldReports        = "reports"
	FieldReportReason   = "reports.reason"
	FieldUpdatedAt      = "updatedAt"
)

// Поля записей статистики пользователей
const (
	FieldStatQuestionID = "questionId"
	FieldStatUserID     = "userId"
)

// Clause: одно условие предиката
type Clause interface {
	isClause()
}

// Regex совпадает, если хотя бы одно из полей соответствует шаблону.
// Для полей-массивов достаточно совпадения одного элемента.
type Regex struct {
	Fields     []string
	Pattern    string
	IgnoreCase bool
}

// In совпадает, если значение поля входит в множество
type In struct {
	Field  string
	Values []any
}

// Eq: точное равенство
type Eq struct {
	Field string
	Value any
}

// Range: включительный диапазон; nil-граница означает отсутствие ограничения
type Range struct {
	Field string
	Min   *int
	Max   *int
}

// Size совпадает, если длина поля-массива равна Len
type Size struct {
	Field string
	Len   int
}

func (Regex) isClause() {}
func (In) isClause()    {}
func (Eq) isClause()    {}
func (Range) isClause() {}
func (Size) isClause()  {}

// Filter: конъюнкция условий. Нулевое значение совпадает со всеми документами.
// Filter неизменяем: With возвращает новую копию.
type Filter struct {
	clauses []Clause
}

// And строит фильтр из набора условий
func And(clauses ...Clause) Filter {
	return Filter{clauses: append([]Clause(nil), clauses...)}
}

// With возвращает новый фильтр с добавленным условием
func (f Filter) With(c Clause) Filter {
	out := make([]Clause, 0, len(f.clauses)+1)
	out = append(out, f.clauses...)
	return Filter{clauses: append(out, c)}
}

// Clauses возвращает копию списка условий
func (f Filter) Clauses() []Clause {
	return append([]Clause(nil), f.clauses...)
}

// IsEmpty возвращает true, если фильтр не содержит условий
func (f Filter) IsEmpty() bool {
	return len(f.clauses) == 0
}

// InInts строит условие In для целочисленных значений
func InInts(field string, values []int) In {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return In{Field: field, Values: out}
}

// InStrings строит условие In для строковых значений
func InStrings(field string, values []string) In {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return In{Field: field, Values: out}
}

// IntPtr: вспомогательная функция для границ Range
func IntPtr(v int) *int {
	return &v
}
