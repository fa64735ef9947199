package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/app/stats"
	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"
	"codeprep/internal/platform/database"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ProblemService struct {
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	gate           premiumGate
	tx             database.Transactor
	logger         *zap.Logger
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	tx database.Transactor,
	logger *zap.Logger,
) *ProblemService {
	return &ProblemService{
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		gate:           premiumGate{users: userRepo, now: time.Now},
		tx:             tx,
		logger:         logger,
	}
}

type CreateProblemRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description json.RawMessage   `json:"description"`
	Editorial   string            `json:"editorial"`
	Difficulty  model.Difficulty  `json:"difficulty" validate:"required"`
	Tags        []string          `json:"tags"`
	Companies   []string          `json:"companies"`
	StarterCode map[string]string `json:"starter_code"`
	TopCode     map[string]string `json:"top_code"`
	BottomCode  map[string]string `json:"bottom_code"`
	Solution    map[string]string `json:"solution"`
	TestCases   []model.TestCase  `json:"test_cases"`
	Hints       []string          `json:"hints"`
	IsPremium   bool              `json:"is_premium"`
}

type UpdateProblemRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *json.RawMessage   `json:"description,omitempty"`
	Editorial   *string            `json:"editorial,omitempty"`
	Difficulty  *model.Difficulty  `json:"difficulty,omitempty"`
	Tags        *[]string          `json:"tags,omitempty"`
	Companies   *[]string          `json:"companies,omitempty"`
	StarterCode *map[string]string `json:"starter_code,omitempty"`
	TopCode     *map[string]string `json:"top_code,omitempty"`
	BottomCode  *map[string]string `json:"bottom_code,omitempty"`
	Solution    *map[string]string `json:"solution,omitempty"`
	TestCases   *[]model.TestCase  `json:"test_cases,omitempty"`
	Hints       *[]string          `json:"hints,omitempty"`
	IsPremium   *bool              `json:"is_premium,omitempty"`
}

type ListProblemsQuery struct {
	Difficulty string
	Tag        string
	Page       int
	PageSize   int
	Fields     []string
}

// ProblemPage.Problems holds []model.ProblemListItem, or one map per problem
// when a field projection was requested.
type ProblemPage struct {
	Problems interface{} `json:"problems"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// listFields are the JSON keys of model.ProblemListItem a caller may project.
var listFields = map[string]bool{
	"id": true, "slug": true, "title": true, "difficulty": true, "tags": true,
	"companies": true, "is_premium": true, "created_at": true,
	"accepted_count": true, "total_submissions": true, "acceptance_rate": true,
}

func validateDifficulty(d model.Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("difficulty must be one of [easy medium hard]: %w", common.ErrValidation)
	}
	return nil
}

func validateDescription(raw json.RawMessage) error {
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil || blocks == nil {
		return fmt.Errorf("description must be a JSON array of content blocks: %w", common.ErrValidation)
	}
	return nil
}

func (s *ProblemService) CreateProblem(ctx context.Context, p access.Principal, req CreateProblemRequest) (*model.Problem, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if err := validateDifficulty(req.Difficulty); err != nil {
		return nil, err
	}
	if len(req.Description) == 0 {
		req.Description = json.RawMessage("[]")
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}

	userID := p.UserID
	problem := &model.Problem{
		ID:          uuid.NewString(),
		Slug:        slug.Make(req.Title),
		Title:       req.Title,
		Description: req.Description,
		Editorial:   req.Editorial,
		Difficulty:  req.Difficulty,
		Tags:        req.Tags,
		Companies:   req.Companies,
		StarterCode: req.StarterCode,
		TopCode:     req.TopCode,
		BottomCode:  req.BottomCode,
		Solution:    req.Solution,
		TestCases:   req.TestCases,
		Hints:       req.Hints,
		IsPremium:   req.IsPremium,
		CreatedByID: &userID,
	}
	if problem.Slug == "" {
		return nil, fmt.Errorf("title must contain letters or digits: %w", common.ErrValidation)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.problemRepo.CreateProblem(ctx, tx, problem)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}
	s.logger.Info("problem created", zap.String("problem_id", problem.ID), zap.String("slug", problem.Slug))
	return problem, nil
}

// ListProblems is public. Acceptance stats for the whole page come from one
// grouped query.
func (s *ProblemService) ListProblems(ctx context.Context, q ListProblemsQuery) (*ProblemPage, error) {
	filter := model.ProblemFilter{Tag: strings.TrimSpace(q.Tag)}
	if q.Difficulty != "" {
		filter.Difficulty = model.Difficulty(strings.ToLower(q.Difficulty))
		if err := validateDifficulty(filter.Difficulty); err != nil {
			return nil, err
		}
	}
	fields, err := normalizeFields(q.Fields)
	if err != nil {
		return nil, err
	}

	page, pageSize := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	problems, total, err := s.problemRepo.ListProblems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}

	ids := make([]string, 0, len(problems))
	for _, p := range problems {
		ids = append(ids, p.ID)
	}
	counts := map[string]model.ProblemCounts{}
	if len(ids) > 0 {
		counts, err = s.submissionRepo.CountsByProblem(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to count submissions: %w", err)
		}
	}
	items := stats.DecorateProblems(problems, counts)

	out := &ProblemPage{Problems: items, Total: total, Page: page, PageSize: pageSize}
	if len(fields) > 0 {
		projected, err := project(items, fields)
		if err != nil {
			return nil, err
		}
		out.Problems = projected
	}
	return out, nil
}

// normalizeFields accepts comma separated entries; unknown names are a 400.
func normalizeFields(raw []string) ([]string, error) {
	var fields []string
	seen := map[string]bool{}
	for _, entry := range raw {
		for _, f := range strings.Split(entry, ",") {
			f = strings.TrimSpace(f)
			if f == "" || seen[f] {
				continue
			}
			if !listFields[f] {
				return nil, fmt.Errorf("unknown field %q: %w", f, common.ErrValidation)
			}
			seen[f] = true
			fields = append(fields, f)
		}
	}
	if len(fields) > 0 && !seen["id"] {
		fields = append(fields, "id")
	}
	sort.Strings(fields)
	return fields, nil
}

func project(items []model.ProblemListItem, fields []string) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to project problem: %w", err)
		}
		var full map[string]interface{}
		if err := json.Unmarshal(raw, &full); err != nil {
			return nil, fmt.Errorf("failed to project problem: %w", err)
		}
		row := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			row[f] = full[f]
		}
		out = append(out, row)
	}
	return out, nil
}

// GetProblem resolves idOrSlug and applies the premium gate. Only admins see
// the reference solution.
func (s *ProblemService) GetProblem(ctx context.Context, p access.Principal, idOrSlug string) (*model.Problem, error) {
	problem, err := findProblem(ctx, s.problemRepo, idOrSlug)
	if err != nil {
		return nil, err
	}
	if err := s.gate.check(ctx, p, problem); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		problem.Solution = nil
	}
	return problem, nil
}

func (s *ProblemService) UpdateProblem(ctx context.Context, p access.Principal, idOrSlug string, req UpdateProblemRequest) (*model.Problem, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	existing, err := findProblem(ctx, s.problemRepo, idOrSlug)
	if err != nil {
		return nil, err
	}

	patch := model.ProblemPatch{
		Description: req.Description,
		Editorial:   req.Editorial,
		Tags:        req.Tags,
		Companies:   req.Companies,
		StarterCode: req.StarterCode,
		TopCode:     req.TopCode,
		BottomCode:  req.BottomCode,
		Solution:    req.Solution,
		TestCases:   req.TestCases,
		Hints:       req.Hints,
		IsPremium:   req.IsPremium,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		newSlug := slug.Make(title)
		if title == "" || newSlug == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", common.ErrValidation)
		}
		patch.Title = &title
		patch.Slug = &newSlug
	}
	if req.Difficulty != nil {
		if err := validateDifficulty(*req.Difficulty); err != nil {
			return nil, err
		}
		patch.Difficulty = req.Difficulty
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return nil, err
		}
	}

	var updated *model.Problem
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		updated, err = s.problemRepo.UpdateProblem(ctx, tx, existing.ID, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update problem: %w", err)
	}
	return updated, nil
}

// DeleteProblem is a hard delete; the problem's submissions go with it.
func (s *ProblemService) DeleteProblem(ctx context.Context, p access.Principal, idOrSlug string) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}
	existing, err := findProblem(ctx, s.problemRepo, idOrSlug)
	if err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.problemRepo.DeleteProblem(ctx, tx, existing.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}
	s.logger.Info("problem deleted", zap.String("problem_id", existing.ID))
	return nil
}

// findProblem accepts either the uuid or the slug.
func findProblem(ctx context.Context, repo repository.ProblemRepository, idOrSlug string) (*model.Problem, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return repo.FindProblemByID(ctx, idOrSlug)
	}
	return repo.FindProblemBySlug(ctx, idOrSlug)
}

type premiumGate struct {
	users repository.UserRepository
	now   func() time.Time
}

// check passes non-premium problems untouched; otherwise the caller's stored
// record decides.
func (g premiumGate) check(ctx context.Context, p access.Principal, problem *model.Problem) error {
	if !problem.IsPremium {
		return nil
	}
	if !p.Authenticated() {
		return access.RequirePremium(p, nil, g.now())
	}
	if p.IsAdmin() {
		return nil
	}
	user, err := g.users.FindByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to load caller: %w", err)
	}
	return access.RequirePremium(p, user, g.now())
}
