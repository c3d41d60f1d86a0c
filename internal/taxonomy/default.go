package taxonomy

var defaultDifficulties = DifficultyRange{Min: 1, Max: 10}

var defaultGroups = []Group{
	{Category: "Literature", Subcategories: []string{
		"American Literature", "British Literature", "Classical Literature",
		"European Literature", "World Literature", "Other Literature",
	}},
	{Category: "History", Subcategories: []string{
		"American History", "Ancient History", "European History",
		"World History", "Other History",
	}},
	{Category: "Science", Subcategories: []string{
		"Biology", "Chemistry", "Physics", "Math", "Other Science",
	}},
	{Category: "Fine Arts", Subcategories: []string{
		"Visual Fine Arts", "Auditory Fine Arts", "Other Fine Arts",
	}},
	{Category: "Religion", Subcategories: []string{"Religion"}},
	{Category: "Mythology", Subcategories: []string{"Mythology"}},
	{Category: "Philosophy", Subcategories: []string{"Philosophy"}},
	{Category: "Social Science", Subcategories: []string{"Social Science"}},
	{Category: "Current Events", Subcategories: []string{"Current Events"}},
	{Category: "Geography", Subcategories: []string{"Geography"}},
	{Category: "Other Academic", Subcategories: []string{"Other Academic"}},
	{Category: "Trash", Subcategories: []string{"Trash"}},
}

// Default возвращает встроенную таксономию
func Default() *Taxonomy {
	t, err := New(defaultGroups, defaultDifficulties)
	if err != nil {
		// встроенные данные проверяются тестом
		panic(err)
	}
	return t
}
