package query

// SortKey: один ключ сортировки
type SortKey struct {
	Field string
	Desc  bool
}

// Pipeline описывает выборку: фильтр, затем либо сортировку, либо случайную выборку,
// затем пропуск и ограничение.
type Pipeline struct {
	Match Filter

	// Sort игнорируется, если SampleSize > 0
	Sort []SortKey

	// SampleSize > 0 заменяет сортировку равномерной случайной выборкой такого размера
	SampleSize int

	Skip  int
	Limit int // 0: без ограничения

	// IncludeReports включает поле reports в результат. По умолчанию жалобы вырезаются.
	IncludeReports bool
}

// Sampled возвращает true для конвейера со случайной выборкой
func (p Pipeline) Sampled() bool {
	return p.SampleSize > 0
}
