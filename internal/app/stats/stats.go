// Package stats computes read-time aggregates. There are two rate
// conventions and they are deliberately kept apart:
//
//   - ProblemAcceptanceRate: accepted submissions / all submissions of one problem.
//   - UserSolveRate: distinct problems solved / all submissions of one user.
package stats

import (
	"math"

	"codeprep/internal/domain/model"
)

// ProblemAcceptanceRate is a percentage rounded to two decimals; 0 when the
// problem has no submissions.
func ProblemAcceptanceRate(accepted, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(accepted) / float64(total) * 100)
}

// UserSolveRate is a percentage rounded to two decimals; 0 when the user has
// not submitted anything.
func UserSolveRate(distinctSolved, totalSubmissions int) float64 {
	if totalSubmissions <= 0 {
		return 0
	}
	return round2(float64(distinctSolved) / float64(totalSubmissions) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DecorateProblems attaches acceptance stats to a page of catalog rows.
// Problems missing from counts have no submissions.
func DecorateProblems(problems []model.ProblemSummary, counts map[string]model.ProblemCounts) []model.ProblemListItem {
	items := make([]model.ProblemListItem, 0, len(problems))
	for _, p := range problems {
		c := counts[p.ID]
		items = append(items, model.ProblemListItem{
			ProblemSummary:   p,
			AcceptedCount:    c.Accepted,
			TotalSubmissions: c.Total,
			AcceptanceRate:   ProblemAcceptanceRate(c.Accepted, c.Total),
		})
	}
	return items
}

// BuildUserStats turns raw counts into the profile stats payload. Every
// difficulty is present; language ids are translated to display names and
// unknown ids are merged under model.UnknownLanguage.
func BuildUserStats(c *model.UserSubmissionCounts) model.UserStats {
	out := model.UserStats{
		SolvedByDifficulty: make(map[model.Difficulty]int, len(model.Difficulties)),
		SolvedByLanguage:   make(map[string]int),
	}
	for _, d := range model.Difficulties {
		out.SolvedByDifficulty[d] = 0
	}
	if c == nil {
		return out
	}

	out.TotalSubmissions = c.Total
	out.AcceptedSubmissions = c.Accepted
	out.ProblemsSolved = c.DistinctSolved
	out.SolveRate = UserSolveRate(c.DistinctSolved, c.Total)
	for d, n := range c.ByDifficulty {
		if d.Valid() {
			out.SolvedByDifficulty[d] = n
		}
	}
	for id, n := range c.ByLanguageID {
		out.SolvedByLanguage[model.LanguageName(id)] += n
	}
	return out
}
