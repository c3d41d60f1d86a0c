package search

import "github.com/yourusername/questionbank-api/internal/domain/query"

// Значения по умолчанию для размера выдачи
const (
	DefaultReturnLength = 25
	MaxReturnLength     = 10000
)

// CanonicalSort: порядок просмотра: сет по убыванию имени, затем пакет и номер вопроса
var CanonicalSort = []query.SortKey{
	{Field: query.FieldSetName, Desc: true},
	{Field: query.FieldPacketNumber},
	{Field: query.FieldQuestionNumber},
}

// Aggregator строит конвейеры выборки по предикату
type Aggregator struct {
	defaultLength int
	maxLength     int
}

// NewAggregator создает агрегатор. Неположительные значения заменяются значениями по умолчанию.
func NewAggregator(defaultLength, maxLength int) *Aggregator {
	if maxLength <= 0 {
		maxLength = MaxReturnLength
	}
	if defaultLength <= 0 {
		defaultLength = DefaultReturnLength
	}
	return &Aggregator{defaultLength: min(defaultLength, maxLength), maxLength: maxLength}
}

// ReturnLength ограничивает запрошенный размер выдачи сверху максимумом,
// а неположительный размер заменяет значением по умолчанию
func (a *Aggregator) ReturnLength(n int) int {
	n = min(n, a.maxLength)
	if n <= 0 {
		return a.defaultLength
	}
	return n
}

// Ordered возвращает конвейер с канонической сортировкой и постраничной выдачей.
// Страницы нумеруются с единицы.
func (a *Aggregator) Ordered(f query.Filter, page, size int) query.Pipeline {
	size = a.ReturnLength(size)
	if page < 1 {
		page = 1
	}
	return query.Pipeline{
		Match: f,
		Sort:  append([]query.SortKey(nil), CanonicalSort...),
		Skip:  (page - 1) * size,
		Limit: size,
	}
}

// Sampled возвращает конвейер равномерной случайной выборки. Пагинации нет.
func (a *Aggregator) Sampled(f query.Filter, size int) query.Pipeline {
	size = a.ReturnLength(size)
	return query.Pipeline{
		Match:      f,
		SampleSize: size,
		Limit:      size,
	}
}

// Build выбирает форму конвейера
func (a *Aggregator) Build(f query.Filter, page, size int, randomize bool) query.Pipeline {
	if randomize {
		return a.Sampled(f, size)
	}
	return a.Ordered(f, page, size)
}
