package model

import (
	"encoding/json"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Problem struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description json.RawMessage   `json:"description,omitempty"` // JSON array of content blocks
	Editorial   string            `json:"editorial,omitempty"`
	Difficulty  Difficulty        `json:"difficulty"`
	Tags        []string          `json:"tags"`
	Companies   []string          `json:"companies"`
	StarterCode map[string]string `json:"starter_code,omitempty"` // keyed by language slug
	TopCode     map[string]string `json:"top_code,omitempty"`
	BottomCode  map[string]string `json:"bottom_code,omitempty"`
	Solution    map[string]string `json:"solution,omitempty"`
	TestCases   []TestCase        `json:"test_cases,omitempty"`
	Hints       []string          `json:"hints,omitempty"`
	IsPremium   bool              `json:"is_premium"`
	CreatedByID *string           `json:"created_by_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// AssembleSource wraps user code with the problem's per-language harness.
func (p *Problem) AssembleSource(languageSlug, code string) string {
	top := p.TopCode[languageSlug]
	bottom := p.BottomCode[languageSlug]
	if top == "" && bottom == "" {
		return code
	}
	src := code
	if top != "" {
		src = top + "\n" + src
	}
	if bottom != "" {
		src = src + "\n" + bottom
	}
	return src
}

// ProblemFilter narrows the catalog listing.
type ProblemFilter struct {
	Difficulty Difficulty
	Tag        string
	Limit      int
	Offset     int
}

// ProblemSummary is the catalog row: everything except the gated detail.
type ProblemSummary struct {
	ID         string     `json:"id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
	Companies  []string   `json:"companies"`
	IsPremium  bool       `json:"is_premium"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ProblemPatch carries a partial problem update. Nil fields are left untouched.
type ProblemPatch struct {
	Title       *string
	Slug        *string
	Description *json.RawMessage
	Editorial   *string
	Difficulty  *Difficulty
	Tags        *[]string
	Companies   *[]string
	StarterCode *map[string]string
	TopCode     *map[string]string
	BottomCode  *map[string]string
	Solution    *map[string]string
	TestCases   *[]TestCase
	Hints       *[]string
	IsPremium   *bool
}
