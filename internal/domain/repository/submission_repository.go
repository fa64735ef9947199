package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/database"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, id string, result model.EvaluationResult) error
	GetSubmissionsForUserProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error)

	// Aggregates
	CountsByProblem(ctx context.Context, problemIDs []string) (map[string]model.ProblemCounts, error)
	CountsForUser(ctx context.Context, userID string) (*model.UserSubmissionCounts, error)
}

const submissionColumns = `id, problem_id, user_id, code, language_id, status, runtime_ms, memory_kb,
	test_cases_passed, total_test_cases, error_output, created_at, updated_at`

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	s := &model.Submission{}
	var runtime, memory sql.NullInt32
	var errOut sql.NullString
	err := row.Scan(&s.ID, &s.ProblemID, &s.UserID, &s.Code, &s.LanguageID, &s.Status, &runtime, &memory,
		&s.TestCasesPassed, &s.TotalTestCases, &errOut, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if runtime.Valid {
		v := int(runtime.Int32)
		s.RuntimeMs = &v
	}
	if memory.Valid {
		v := int(memory.Int32)
		s.MemoryKb = &v
	}
	if errOut.Valid {
		s.ErrorOutput = &errOut.String
	}
	s.Language = model.LanguageName(s.LanguageID)
	return s, nil
}

// CreateSubmission always stores the row as pending; only the evaluator result
// moves it on.
func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	sub.Status = model.StatusPending
	query := `INSERT INTO submissions (id, problem_id, user_id, code, language_id, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := database.Conn(r.db, tx).QueryRowContext(ctx, query,
		sub.ID, sub.ProblemID, sub.UserID, sub.Code, sub.LanguageID, sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	sub.Language = model.LanguageName(sub.LanguageID)
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, id string, res model.EvaluationResult) error {
	query := `UPDATE submissions SET status = $1, runtime_ms = $2, memory_kb = $3, test_cases_passed = $4,
	                 total_test_cases = $5, error_output = $6, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $7`
	out, err := database.Conn(r.db, tx).ExecContext(ctx, query,
		res.Status, res.RuntimeMs, res.MemoryKb, res.TestCasesPassed, res.TotalTestCases, res.ErrorOutput, id)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateSubmissionResult: %w", err)
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// GetSubmissionsForUserProblem filters by owner in SQL; callers never see
// another user's rows.
func (r *pgSubmissionRepository) GetSubmissionsForUserProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE user_id = $1 AND problem_id = $2
	          ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionsForUserProblem query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionsForUserProblem scan: %w", err)
		}
		subs = append(subs, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionsForUserProblem rows.Err: %w", err)
	}
	return subs, nil
}

// CountsByProblem returns accepted/total counts for a page of problems in one
// grouped query. Problems without submissions are absent from the map.
func (r *pgSubmissionRepository) CountsByProblem(ctx context.Context, problemIDs []string) (map[string]model.ProblemCounts, error) {
	counts := make(map[string]model.ProblemCounts, len(problemIDs))
	if len(problemIDs) == 0 {
		return counts, nil
	}

	args := make([]any, len(problemIDs))
	for i, id := range problemIDs {
		args[i] = id
	}
	query := `SELECT problem_id, COUNT(*) FILTER (WHERE status = 'accepted'), COUNT(*)
	          FROM submissions
	          WHERE problem_id IN (` + placeholders(1, len(problemIDs)) + `)
	          GROUP BY problem_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.CountsByProblem query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var c model.ProblemCounts
		if err := rows.Scan(&id, &c.Accepted, &c.Total); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.CountsByProblem scan: %w", err)
		}
		counts[id] = c
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.CountsByProblem rows.Err: %w", err)
	}
	return counts, nil
}

func (r *pgSubmissionRepository) CountsForUser(ctx context.Context, userID string) (*model.UserSubmissionCounts, error) {
	out := &model.UserSubmissionCounts{
		ByDifficulty: map[model.Difficulty]int{},
		ByLanguageID: map[int]int{},
	}

	totals := `SELECT COUNT(*),
	                  COUNT(*) FILTER (WHERE status = 'accepted'),
	                  COUNT(DISTINCT problem_id) FILTER (WHERE status = 'accepted')
	           FROM submissions WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, totals, userID).Scan(&out.Total, &out.Accepted, &out.DistinctSolved); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.CountsForUser totals: %w", err)
	}

	byDifficulty := `SELECT p.difficulty, COUNT(DISTINCT s.problem_id)
	                 FROM submissions s JOIN problems p ON p.id = s.problem_id
	                 WHERE s.user_id = $1 AND s.status = 'accepted'
	                 GROUP BY p.difficulty`
	if err := r.collect(ctx, byDifficulty, userID, func(rows *sql.Rows) error {
		var d model.Difficulty
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return err
		}
		out.ByDifficulty[d] = n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.CountsForUser difficulty: %w", err)
	}

	byLanguage := `SELECT language_id, COUNT(DISTINCT problem_id)
	               FROM submissions
	               WHERE user_id = $1 AND status = 'accepted'
	               GROUP BY language_id`
	if err := r.collect(ctx, byLanguage, userID, func(rows *sql.Rows) error {
		var lang, n int
		if err := rows.Scan(&lang, &n); err != nil {
			return err
		}
		out.ByLanguageID[lang] = n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.CountsForUser language: %w", err)
	}

	return out, nil
}

func (r *pgSubmissionRepository) collect(ctx context.Context, query string, arg any, fn func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
