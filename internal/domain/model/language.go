package model

import "sort"

type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"` // key into the per-language code maps of a problem
}

// Evaluator language ids.
var languages = map[int]Language{
	50: {ID: 50, Name: "C", Slug: "c"},
	54: {ID: 54, Name: "C++", Slug: "cpp"},
	51: {ID: 51, Name: "C#", Slug: "csharp"},
	60: {ID: 60, Name: "Go", Slug: "go"},
	62: {ID: 62, Name: "Java", Slug: "java"},
	63: {ID: 63, Name: "JavaScript", Slug: "javascript"},
	71: {ID: 71, Name: "Python", Slug: "python"},
	73: {ID: 73, Name: "Rust", Slug: "rust"},
	74: {ID: 74, Name: "TypeScript", Slug: "typescript"},
}

const UnknownLanguage = "Unknown"

func LanguageByID(id int) (Language, bool) {
	l, ok := languages[id]
	return l, ok
}

// LanguageName normalizes an evaluator id to its display name.
func LanguageName(id int) string {
	if l, ok := languages[id]; ok {
		return l.Name
	}
	return UnknownLanguage
}

func Languages() []Language {
	out := make([]Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
