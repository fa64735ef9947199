package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/database"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	UpdateProblem(ctx context.Context, tx *sql.Tx, id string, patch model.ProblemPatch) (*model.Problem, error)
	DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	ListProblems(ctx context.Context, filter model.ProblemFilter) ([]model.ProblemSummary, int, error)
}

const problemColumns = `id, slug, title, description, editorial, difficulty, tags, companies,
	starter_code, top_code, bottom_code, solution, test_cases, hints, is_premium, created_by,
	created_at, updated_at`

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	p := &model.Problem{}
	var (
		description, tags, companies, starter, top, bottom, solution, testCases, hints []byte
		createdBy                                                                      sql.NullString
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &description, &p.Editorial, &p.Difficulty, &tags, &companies,
		&starter, &top, &bottom, &solution, &testCases, &hints, &p.IsPremium, &createdBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = append([]byte(nil), description...)
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{tags, &p.Tags}, {companies, &p.Companies}, {starter, &p.StarterCode}, {top, &p.TopCode},
		{bottom, &p.BottomCode}, {solution, &p.Solution}, {testCases, &p.TestCases}, {hints, &p.Hints},
	} {
		if err := unmarshalJSON(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode problem %s: %w", p.ID, err)
		}
	}
	if createdBy.Valid {
		p.CreatedByID = &createdBy.String
	}
	return p, nil
}

// problemJSONArgs encodes the JSONB columns in problemColumns order.
func problemJSONArgs(p *model.Problem) ([]any, error) {
	fields := []struct {
		v     any
		empty string
	}{
		{p.Tags, "[]"}, {p.Companies, "[]"}, {p.StarterCode, "{}"}, {p.TopCode, "{}"},
		{p.BottomCode, "{}"}, {p.Solution, "{}"}, {p.TestCases, "[]"}, {p.Hints, "[]"},
	}
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		b, err := jsonArg(f.v, f.empty)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, slug, title, description, editorial, difficulty, tags, companies,
	              starter_code, top_code, bottom_code, solution, test_cases, hints, is_premium, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING created_at, updated_at`

	jsonArgs, err := problemJSONArgs(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateProblem encode: %w", err)
	}
	args := []any{p.ID, p.Slug, p.Title, []byte(p.Description), p.Editorial, p.Difficulty}
	args = append(args, jsonArgs...)
	args = append(args, p.IsPremium, p.CreatedByID)

	err = database.Conn(r.db, tx).QueryRowContext(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, id string, patch model.ProblemPatch) (*model.Problem, error) {
	var b updateBuilder
	if patch.Title != nil {
		b.set("title", *patch.Title)
	}
	if patch.Slug != nil {
		b.set("slug", *patch.Slug)
	}
	if patch.Description != nil {
		b.set("description", []byte(*patch.Description))
	}
	if patch.Editorial != nil {
		b.set("editorial", *patch.Editorial)
	}
	if patch.Difficulty != nil {
		b.set("difficulty", *patch.Difficulty)
	}
	if patch.IsPremium != nil {
		b.set("is_premium", *patch.IsPremium)
	}
	for _, f := range []struct {
		column string
		ok     bool
		v      func() any
		empty  string
	}{
		{"tags", patch.Tags != nil, func() any { return *patch.Tags }, "[]"},
		{"companies", patch.Companies != nil, func() any { return *patch.Companies }, "[]"},
		{"starter_code", patch.StarterCode != nil, func() any { return *patch.StarterCode }, "{}"},
		{"top_code", patch.TopCode != nil, func() any { return *patch.TopCode }, "{}"},
		{"bottom_code", patch.BottomCode != nil, func() any { return *patch.BottomCode }, "{}"},
		{"solution", patch.Solution != nil, func() any { return *patch.Solution }, "{}"},
		{"test_cases", patch.TestCases != nil, func() any { return *patch.TestCases }, "[]"},
		{"hints", patch.Hints != nil, func() any { return *patch.Hints }, "[]"},
	} {
		if !f.ok {
			continue
		}
		raw, err := jsonArg(f.v(), f.empty)
		if err != nil {
			return nil, fmt.Errorf("pgProblemRepository.UpdateProblem encode %s: %w", f.column, err)
		}
		b.set(f.column, raw)
	}
	if b.empty() {
		return r.FindProblemByID(ctx, id)
	}

	query, args := b.build("problems", id, problemColumns)
	p, err := scanProblem(database.Conn(r.db, tx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if common.IsUniqueViolation(err) {
			return nil, fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	return p, nil
}

// DeleteProblem removes the row; submissions follow through ON DELETE CASCADE.
func (r *pgProblemRepository) DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := database.Conn(r.db, tx).ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteProblem: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) findOne(ctx context.Context, op, column, value string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE ` + column + ` = $1`
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.%s: %w", op, err)
	}
	return p, nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	return r.findOne(ctx, "FindProblemByID", "id", id)
}

func (r *pgProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return r.findOne(ctx, "FindProblemBySlug", "slug", slug)
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, filter model.ProblemFilter) ([]model.ProblemSummary, int, error) {
	var conditions []string
	var args []any
	argID := 1

	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, filter.Difficulty)
		argID++
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags @> jsonb_build_array($%d::text)", argID))
		args = append(args, filter.Tag)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	query := `SELECT id, slug, title, difficulty, tags, companies, is_premium, created_at FROM problems` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.ProblemSummary{}
	for rows.Next() {
		var p model.ProblemSummary
		var tags, companies []byte
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Difficulty, &tags, &companies, &p.IsPremium, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		if err := unmarshalJSON(tags, &p.Tags); err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems tags: %w", err)
		}
		if err := unmarshalJSON(companies, &p.Companies); err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems companies: %w", err)
		}
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems rows.Err: %w", err)
	}
	return problems, total, nil
}
