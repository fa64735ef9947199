package model

// ProblemCounts are the grouped submission counts for one problem.
type ProblemCounts struct {
	Accepted int
	Total    int
}

// ProblemListItem is a catalog row decorated with read-time stats.
type ProblemListItem struct {
	ProblemSummary
	AcceptedCount    int     `json:"accepted_count"`
	TotalSubmissions int     `json:"total_submissions"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
}

// UserSubmissionCounts is what the store aggregates for one user.
type UserSubmissionCounts struct {
	Total          int
	Accepted       int
	DistinctSolved int
	ByDifficulty   map[Difficulty]int
	ByLanguageID   map[int]int
}

type UserStats struct {
	TotalSubmissions    int                `json:"total_submissions"`
	AcceptedSubmissions int                `json:"accepted_submissions"`
	ProblemsSolved      int                `json:"problems_solved"`
	SolveRate           float64            `json:"solve_rate"`
	SolvedByDifficulty  map[Difficulty]int `json:"solved_by_difficulty"`
	SolvedByLanguage    map[string]int     `json:"solved_by_language"`
}
