package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const twoSumID = "44444444-4444-4444-4444-444444444444"

func newProblemService(problems *testhelpers.MockProblemRepo, subs *testhelpers.MockSubmissionRepo, users *testhelpers.MockUserRepo) (*ProblemService, *testhelpers.Transactor) {
	tx := &testhelpers.Transactor{}
	if subs == nil {
		subs = &testhelpers.MockSubmissionRepo{}
	}
	if users == nil {
		users = &testhelpers.MockUserRepo{}
	}
	svc := NewProblemService(problems, subs, users, tx, zap.NewNop())
	svc.gate.now = fixedClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	return svc, tx
}

func TestCreateProblemValidationPersistsNothing(t *testing.T) {
	repo := &testhelpers.MockProblemRepo{CreateProblemFn: func(*model.Problem) error {
		t.Fatal("invalid problem must not be persisted")
		return nil
	}}
	svc, tx := newProblemService(repo, nil, nil)

	cases := map[string]CreateProblemRequest{
		"missing title":          {Difficulty: model.DifficultyEasy},
		"blank title":            {Title: "   ", Difficulty: model.DifficultyEasy},
		"missing difficulty":     {Title: "Two Sum"},
		"invalid difficulty":     {Title: "Two Sum", Difficulty: "extreme"},
		"description not array":  {Title: "Two Sum", Difficulty: model.DifficultyEasy, Description: json.RawMessage(`{"type":"text"}`)},
		"description not json":   {Title: "Two Sum", Difficulty: model.DifficultyEasy, Description: json.RawMessage(`nope`)},
		"title without a letter": {Title: "!!!", Difficulty: model.DifficultyEasy},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProblem(context.Background(), admin, req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
	assert.Zero(t, tx.Commits)
}

func TestCreateProblemRequiresAdmin(t *testing.T) {
	svc, _ := newProblemService(&testhelpers.MockProblemRepo{}, nil, nil)

	_, err := svc.CreateProblem(context.Background(), alice, CreateProblemRequest{Title: "Two Sum", Difficulty: model.DifficultyEasy})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = svc.CreateProblem(context.Background(), access.Anonymous, CreateProblemRequest{Title: "Two Sum", Difficulty: model.DifficultyEasy})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestCreateProblemKeepsTestCasesInOrder(t *testing.T) {
	var stored *model.Problem
	repo := &testhelpers.MockProblemRepo{CreateProblemFn: func(p *model.Problem) error {
		stored = p
		return nil
	}}
	svc, tx := newProblemService(repo, nil, nil)

	cases := []model.TestCase{{Input: "1 2", Output: "3"}, {Input: "-1 1", Output: "0"}}
	p, err := svc.CreateProblem(context.Background(), admin, CreateProblemRequest{
		Title:       "Two Sum",
		Difficulty:  model.DifficultyEasy,
		Description: json.RawMessage(`[{"type":"text","content":"Add"}]`),
		TestCases:   cases,
	})
	require.NoError(t, err)
	assert.Equal(t, "two-sum", p.Slug)
	assert.Equal(t, cases, stored.TestCases)
	assert.Equal(t, admin.UserID, *stored.CreatedByID)
	assert.Equal(t, 1, tx.Commits)
}

func TestCreateProblemDefaultsDescription(t *testing.T) {
	svc, _ := newProblemService(&testhelpers.MockProblemRepo{}, nil, nil)

	p, err := svc.CreateProblem(context.Background(), admin, CreateProblemRequest{Title: "Two Sum", Difficulty: model.DifficultyEasy})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(p.Description))
}

func TestCreateProblemDuplicateSlug(t *testing.T) {
	repo := &testhelpers.MockProblemRepo{CreateProblemFn: func(*model.Problem) error { return common.ErrConflict }}
	svc, tx := newProblemService(repo, nil, nil)

	_, err := svc.CreateProblem(context.Background(), admin, CreateProblemRequest{Title: "Two Sum", Difficulty: model.DifficultyEasy})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 1, tx.Rollbacks)
}

func TestListProblemsDecoratesWithOneGroupedQuery(t *testing.T) {
	problems := &testhelpers.MockProblemRepo{ListProblemsFn: func(f model.ProblemFilter) ([]model.ProblemSummary, int, error) {
		assert.Equal(t, model.DifficultyEasy, f.Difficulty)
		assert.Equal(t, 10, f.Limit)
		assert.Equal(t, 10, f.Offset)
		return []model.ProblemSummary{{ID: "p1", Title: "A"}, {ID: "p2", Title: "B"}}, 12, nil
	}}
	calls := 0
	subs := &testhelpers.MockSubmissionRepo{CountsByProblemFn: func(ids []string) (map[string]model.ProblemCounts, error) {
		calls++
		assert.Equal(t, []string{"p1", "p2"}, ids)
		return map[string]model.ProblemCounts{"p1": {Accepted: 1, Total: 3}}, nil
	}}
	svc, _ := newProblemService(problems, subs, nil)

	page, err := svc.ListProblems(context.Background(), ListProblemsQuery{Difficulty: "EASY", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 12, page.Total)

	items, ok := page.Problems.([]model.ProblemListItem)
	require.True(t, ok)
	assert.Equal(t, 33.33, items[0].AcceptanceRate)
	assert.Equal(t, 0.0, items[1].AcceptanceRate)
	assert.Equal(t, 0, items[1].TotalSubmissions)
}

func TestListProblemsFieldProjection(t *testing.T) {
	problems := &testhelpers.MockProblemRepo{ListProblemsFn: func(model.ProblemFilter) ([]model.ProblemSummary, int, error) {
		return []model.ProblemSummary{{ID: "p1", Title: "A", Slug: "a"}}, 1, nil
	}}
	svc, _ := newProblemService(problems, nil, nil)

	page, err := svc.ListProblems(context.Background(), ListProblemsQuery{Fields: []string{"title, acceptance_rate"}})
	require.NoError(t, err)
	rows, ok := page.Problems.([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]interface{}{"id": "p1", "title": "A", "acceptance_rate": 0.0}, rows[0])
}

func TestListProblemsRejectsUnknownFieldAndDifficulty(t *testing.T) {
	svc, _ := newProblemService(&testhelpers.MockProblemRepo{}, nil, nil)

	_, err := svc.ListProblems(context.Background(), ListProblemsQuery{Fields: []string{"hashed_password"}})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.ListProblems(context.Background(), ListProblemsQuery{Difficulty: "brutal"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGetProblemPremiumGate(t *testing.T) {
	future := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	problems := &testhelpers.MockProblemRepo{
		FindProblemBySlugFn: func(slug string) (*model.Problem, error) {
			return &model.Problem{ID: twoSumID, Slug: slug, IsPremium: true, Solution: map[string]string{"go": "func f() {}"}}, nil
		},
	}
	users := &testhelpers.MockUserRepo{FindByIDFn: func(id string) (*model.User, error) {
		if id == alice.UserID {
			return &model.User{ID: id, IsSubscribed: true, SubscriptionExpiresAt: &future}, nil
		}
		return &model.User{ID: id}, nil
	}}
	svc, _ := newProblemService(problems, nil, users)
	ctx := context.Background()

	_, err := svc.GetProblem(ctx, access.Anonymous, "two-sum")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.GetProblem(ctx, bob, "two-sum")
	assert.ErrorIs(t, err, common.ErrForbidden)

	p, err := svc.GetProblem(ctx, alice, "two-sum")
	require.NoError(t, err)
	assert.Nil(t, p.Solution)

	p, err = svc.GetProblem(ctx, admin, "two-sum")
	require.NoError(t, err)
	assert.NotNil(t, p.Solution)
}

func TestGetProblemByUUID(t *testing.T) {
	problems := &testhelpers.MockProblemRepo{FindProblemByIDFn: func(id string) (*model.Problem, error) {
		return &model.Problem{ID: id, Title: "Two Sum"}, nil
	}}
	svc, _ := newProblemService(problems, nil, nil)

	p, err := svc.GetProblem(context.Background(), access.Anonymous, twoSumID)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", p.Title)
}

func TestUpdateProblemRejectsNonAdmin(t *testing.T) {
	problems := &testhelpers.MockProblemRepo{}
	svc, tx := newProblemService(problems, nil, nil)
	title := "Hacked"

	_, err := svc.UpdateProblem(context.Background(), alice, twoSumID, UpdateProblemRequest{Title: &title})
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Zero(t, tx.Commits)
}

func TestUpdateProblemRegeneratesSlug(t *testing.T) {
	var got model.ProblemPatch
	problems := &testhelpers.MockProblemRepo{
		FindProblemBySlugFn: func(slug string) (*model.Problem, error) {
			return &model.Problem{ID: twoSumID, Slug: slug}, nil
		},
		UpdateProblemFn: func(id string, patch model.ProblemPatch) (*model.Problem, error) {
			assert.Equal(t, twoSumID, id)
			got = patch
			return &model.Problem{ID: id, Title: *patch.Title, Slug: *patch.Slug}, nil
		},
	}
	svc, _ := newProblemService(problems, nil, nil)
	title := "Three Sum"
	premium := true

	p, err := svc.UpdateProblem(context.Background(), admin, "two-sum", UpdateProblemRequest{Title: &title, IsPremium: &premium})
	require.NoError(t, err)
	assert.Equal(t, "three-sum", p.Slug)
	assert.True(t, *got.IsPremium)
	assert.Nil(t, got.Difficulty)
}

func TestUpdateProblemValidatesFields(t *testing.T) {
	problems := &testhelpers.MockProblemRepo{FindProblemByIDFn: func(id string) (*model.Problem, error) {
		return &model.Problem{ID: id}, nil
	}}
	svc, _ := newProblemService(problems, nil, nil)
	bad := model.Difficulty("brutal")
	desc := json.RawMessage(`"text"`)

	_, err := svc.UpdateProblem(context.Background(), admin, twoSumID, UpdateProblemRequest{Difficulty: &bad})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.UpdateProblem(context.Background(), admin, twoSumID, UpdateProblemRequest{Description: &desc})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteProblem(t *testing.T) {
	deleted := ""
	problems := &testhelpers.MockProblemRepo{
		FindProblemByIDFn: func(id string) (*model.Problem, error) { return &model.Problem{ID: id}, nil },
		DeleteProblemFn: func(id string) error {
			deleted = id
			return nil
		},
	}
	svc, _ := newProblemService(problems, nil, nil)

	assert.ErrorIs(t, svc.DeleteProblem(context.Background(), alice, twoSumID), common.ErrForbidden)
	assert.Empty(t, deleted)

	require.NoError(t, svc.DeleteProblem(context.Background(), admin, twoSumID))
	assert.Equal(t, twoSumID, deleted)
}
