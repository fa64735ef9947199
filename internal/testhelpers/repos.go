// Package testhelpers provides function-field fakes of the repositories and
// small fixtures shared by service, worker and handler tests. Unset read
// functions panic so a test notices calls it did not expect; unset writes
// succeed.
package testhelpers

import (
	"context"
	"database/sql"
	"time"

	"codeprep/internal/domain/model"
)

type MockUserRepo struct {
	CreateFn               func(user *model.User) error
	FindByEmailFn          func(email string) (*model.User, error)
	FindByUsernameFn       func(username string) (*model.User, error)
	FindByIDFn             func(id string) (*model.User, error)
	UpdateFn               func(id string, update model.UserUpdate) (*model.User, error)
	ActivateSubscriptionFn func(userID, plan string, expiresAt time.Time) error
	ExpireSubscriptionsFn  func(now time.Time) (int64, error)
}

func (m *MockUserRepo) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(user)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.FindByEmailFn == nil {
		panic("unexpected call to FindByEmail")
	}
	return m.FindByEmailFn(email)
}

func (m *MockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.FindByUsernameFn == nil {
		panic("unexpected call to FindByUsername")
	}
	return m.FindByUsernameFn(username)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.FindByIDFn == nil {
		panic("unexpected call to FindByID")
	}
	return m.FindByIDFn(id)
}

func (m *MockUserRepo) Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	if m.UpdateFn == nil {
		panic("unexpected call to Update")
	}
	return m.UpdateFn(id, update)
}

func (m *MockUserRepo) ActivateSubscription(ctx context.Context, tx *sql.Tx, userID, plan string, expiresAt time.Time) error {
	if m.ActivateSubscriptionFn == nil {
		return nil
	}
	return m.ActivateSubscriptionFn(userID, plan, expiresAt)
}

func (m *MockUserRepo) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	if m.ExpireSubscriptionsFn == nil {
		return 0, nil
	}
	return m.ExpireSubscriptionsFn(now)
}

type MockProblemRepo struct {
	CreateProblemFn     func(problem *model.Problem) error
	UpdateProblemFn     func(id string, patch model.ProblemPatch) (*model.Problem, error)
	DeleteProblemFn     func(id string) error
	FindProblemByIDFn   func(id string) (*model.Problem, error)
	FindProblemBySlugFn func(slug string) (*model.Problem, error)
	ListProblemsFn      func(filter model.ProblemFilter) ([]model.ProblemSummary, int, error)
}

func (m *MockProblemRepo) CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error {
	if m.CreateProblemFn == nil {
		return nil
	}
	return m.CreateProblemFn(problem)
}

func (m *MockProblemRepo) UpdateProblem(ctx context.Context, tx *sql.Tx, id string, patch model.ProblemPatch) (*model.Problem, error) {
	if m.UpdateProblemFn == nil {
		panic("unexpected call to UpdateProblem")
	}
	return m.UpdateProblemFn(id, patch)
}

func (m *MockProblemRepo) DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error {
	if m.DeleteProblemFn == nil {
		return nil
	}
	return m.DeleteProblemFn(id)
}

func (m *MockProblemRepo) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	if m.FindProblemByIDFn == nil {
		panic("unexpected call to FindProblemByID")
	}
	return m.FindProblemByIDFn(id)
}

func (m *MockProblemRepo) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	if m.FindProblemBySlugFn == nil {
		panic("unexpected call to FindProblemBySlug")
	}
	return m.FindProblemBySlugFn(slug)
}

func (m *MockProblemRepo) ListProblems(ctx context.Context, filter model.ProblemFilter) ([]model.ProblemSummary, int, error) {
	if m.ListProblemsFn == nil {
		panic("unexpected call to ListProblems")
	}
	return m.ListProblemsFn(filter)
}

type MockSubmissionRepo struct {
	CreateSubmissionFn             func(sub *model.Submission) error
	GetSubmissionByIDFn            func(id string) (*model.Submission, error)
	UpdateSubmissionResultFn       func(id string, result model.EvaluationResult) error
	GetSubmissionsForUserProblemFn func(userID, problemID string) ([]model.Submission, error)
	CountsByProblemFn              func(problemIDs []string) (map[string]model.ProblemCounts, error)
	CountsForUserFn                func(userID string) (*model.UserSubmissionCounts, error)
}

func (m *MockSubmissionRepo) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	sub.Status = model.StatusPending
	if m.CreateSubmissionFn == nil {
		return nil
	}
	return m.CreateSubmissionFn(sub)
}

func (m *MockSubmissionRepo) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	if m.GetSubmissionByIDFn == nil {
		panic("unexpected call to GetSubmissionByID")
	}
	return m.GetSubmissionByIDFn(id)
}

func (m *MockSubmissionRepo) UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, id string, result model.EvaluationResult) error {
	if m.UpdateSubmissionResultFn == nil {
		return nil
	}
	return m.UpdateSubmissionResultFn(id, result)
}

func (m *MockSubmissionRepo) GetSubmissionsForUserProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	if m.GetSubmissionsForUserProblemFn == nil {
		panic("unexpected call to GetSubmissionsForUserProblem")
	}
	return m.GetSubmissionsForUserProblemFn(userID, problemID)
}

func (m *MockSubmissionRepo) CountsByProblem(ctx context.Context, problemIDs []string) (map[string]model.ProblemCounts, error) {
	if m.CountsByProblemFn == nil {
		return map[string]model.ProblemCounts{}, nil
	}
	return m.CountsByProblemFn(problemIDs)
}

func (m *MockSubmissionRepo) CountsForUser(ctx context.Context, userID string) (*model.UserSubmissionCounts, error) {
	if m.CountsForUserFn == nil {
		panic("unexpected call to CountsForUser")
	}
	return m.CountsForUserFn(userID)
}

type MockInterviewRepo struct {
	CreateFn     func(interview *model.Interview) error
	FindByIDFn   func(id string) (*model.Interview, error)
	ListByUserFn func(userID string) ([]model.Interview, error)
	UpdateFn     func(id string, patch model.InterviewPatch) (*model.Interview, error)
}

func (m *MockInterviewRepo) Create(ctx context.Context, interview *model.Interview) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(interview)
}

func (m *MockInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	if m.FindByIDFn == nil {
		panic("unexpected call to FindByID")
	}
	return m.FindByIDFn(id)
}

func (m *MockInterviewRepo) ListByUser(ctx context.Context, userID string) ([]model.Interview, error) {
	if m.ListByUserFn == nil {
		panic("unexpected call to ListByUser")
	}
	return m.ListByUserFn(userID)
}

func (m *MockInterviewRepo) Update(ctx context.Context, id string, patch model.InterviewPatch) (*model.Interview, error) {
	if m.UpdateFn == nil {
		panic("unexpected call to Update")
	}
	return m.UpdateFn(id, patch)
}

type MockCommunityRepo struct {
	CreatePostFn         func(post *model.Post) error
	FindPostFn           func(id, viewerID string) (*model.Post, error)
	ListPostsFn          func(filter model.PostFilter, viewerID string) ([]model.Post, int, error)
	DeletePostFn         func(id string) error
	DeleteExpiredPostsFn func(now time.Time) (int64, error)

	CreateCommentFn func(comment *model.Comment) error
	FindCommentFn   func(id string) (*model.Comment, error)
	ListCommentsFn  func(postID string) ([]model.Comment, error)
	DeleteCommentFn func(id string) error

	UpsertVoteFn func(postID, userID, voteType string) error
	DeleteVoteFn func(postID, userID string) error
	TallyFn      func(postID, userID string) (*model.VoteTally, error)
}

func (m *MockCommunityRepo) CreatePost(ctx context.Context, post *model.Post) error {
	if m.CreatePostFn == nil {
		return nil
	}
	return m.CreatePostFn(post)
}

func (m *MockCommunityRepo) FindPost(ctx context.Context, id, viewerID string) (*model.Post, error) {
	if m.FindPostFn == nil {
		panic("unexpected call to FindPost")
	}
	return m.FindPostFn(id, viewerID)
}

func (m *MockCommunityRepo) ListPosts(ctx context.Context, filter model.PostFilter, viewerID string) ([]model.Post, int, error) {
	if m.ListPostsFn == nil {
		panic("unexpected call to ListPosts")
	}
	return m.ListPostsFn(filter, viewerID)
}

func (m *MockCommunityRepo) DeletePost(ctx context.Context, id string) error {
	if m.DeletePostFn == nil {
		return nil
	}
	return m.DeletePostFn(id)
}

func (m *MockCommunityRepo) DeleteExpiredPosts(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredPostsFn == nil {
		return 0, nil
	}
	return m.DeleteExpiredPostsFn(now)
}

func (m *MockCommunityRepo) CreateComment(ctx context.Context, comment *model.Comment) error {
	if m.CreateCommentFn == nil {
		return nil
	}
	return m.CreateCommentFn(comment)
}

func (m *MockCommunityRepo) FindComment(ctx context.Context, id string) (*model.Comment, error) {
	if m.FindCommentFn == nil {
		panic("unexpected call to FindComment")
	}
	return m.FindCommentFn(id)
}

func (m *MockCommunityRepo) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	if m.ListCommentsFn == nil {
		panic("unexpected call to ListComments")
	}
	return m.ListCommentsFn(postID)
}

func (m *MockCommunityRepo) DeleteComment(ctx context.Context, id string) error {
	if m.DeleteCommentFn == nil {
		return nil
	}
	return m.DeleteCommentFn(id)
}

func (m *MockCommunityRepo) UpsertVote(ctx context.Context, tx *sql.Tx, postID, userID, voteType string) error {
	if m.UpsertVoteFn == nil {
		return nil
	}
	return m.UpsertVoteFn(postID, userID, voteType)
}

func (m *MockCommunityRepo) DeleteVote(ctx context.Context, tx *sql.Tx, postID, userID string) error {
	if m.DeleteVoteFn == nil {
		return nil
	}
	return m.DeleteVoteFn(postID, userID)
}

func (m *MockCommunityRepo) Tally(ctx context.Context, tx *sql.Tx, postID, userID string) (*model.VoteTally, error) {
	if m.TallyFn == nil {
		panic("unexpected call to Tally")
	}
	return m.TallyFn(postID, userID)
}

type MockPaymentRepo struct {
	CreateFn        func(payment *model.Payment) error
	FindByOrderIDFn func(orderID string) (*model.Payment, error)
	MarkPaidFn      func(orderID, paymentID string) error
	MarkFailedFn    func(orderID string) error
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(payment)
}

func (m *MockPaymentRepo) FindByOrderID(ctx context.Context, tx *sql.Tx, orderID string) (*model.Payment, error) {
	if m.FindByOrderIDFn == nil {
		panic("unexpected call to FindByOrderID")
	}
	return m.FindByOrderIDFn(orderID)
}

func (m *MockPaymentRepo) MarkPaid(ctx context.Context, tx *sql.Tx, orderID, paymentID string) error {
	if m.MarkPaidFn == nil {
		return nil
	}
	return m.MarkPaidFn(orderID, paymentID)
}

func (m *MockPaymentRepo) MarkFailed(ctx context.Context, orderID string) error {
	if m.MarkFailedFn == nil {
		return nil
	}
	return m.MarkFailedFn(orderID)
}
