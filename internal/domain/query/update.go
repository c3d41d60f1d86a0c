package query

// Update описывает изменение документа
type Update struct {
	// Set присваивает значения полям
	Set map[string]any
	// Push добавляет элемент в конец поля-массива
	Push map[string]any
	// Unset сбрасывает поля к пустому значению
	Unset []string
}

// IsEmpty возвращает true, если обновление ничего не меняет
func (u Update) IsEmpty() bool {
	return len(u.Set) == 0 && len(u.Push) == 0 && len(u.Unset) == 0
}

// UpdateResult: количество найденных и измененных документов
type UpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}
