package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"
	"codeprep/internal/platform/database"
	"codeprep/internal/platform/evaluator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobQueue accepts execution jobs for the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, job model.ExecutionJob) error
}

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	gate           premiumGate
	tx             database.Transactor
	queue          JobQueue
	evaluator      evaluator.Evaluator
	logger         *zap.Logger
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	tx database.Transactor,
	queue JobQueue,
	eval evaluator.Evaluator,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		gate:           premiumGate{users: userRepo, now: time.Now},
		tx:             tx,
		queue:          queue,
		evaluator:      eval,
		logger:         logger,
	}
}

type CreateSubmissionRequest struct {
	LanguageID int    `json:"language_id" validate:"required"`
	Code       string `json:"code" validate:"required,max=65536"`
}

type RunCodeRequest struct {
	LanguageID int      `json:"language_id" validate:"required"`
	Code       string   `json:"code" validate:"required,max=65536"`
	Stdin      []string `json:"stdin,omitempty"` // custom inputs; problem test cases when empty
}

type RunCodeResult struct {
	model.EvaluationResult
	Stdout []string `json:"stdout,omitempty"`
}

func languageFor(id int) (model.Language, error) {
	lang, ok := model.LanguageByID(id)
	if !ok {
		return model.Language{}, fmt.Errorf("unsupported language id %d: %w", id, common.ErrValidation)
	}
	return lang, nil
}

// CreateSubmission stores a pending submission and hands it to the worker.
func (s *SubmissionService) CreateSubmission(ctx context.Context, p access.Principal, problemIDOrSlug string, req CreateSubmissionRequest) (*model.Submission, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	lang, err := languageFor(req.LanguageID)
	if err != nil {
		return nil, err
	}
	problem, err := findProblem(ctx, s.problemRepo, problemIDOrSlug)
	if err != nil {
		return nil, err
	}
	if err := s.gate.check(ctx, p, problem); err != nil {
		return nil, err
	}

	submission := &model.Submission{
		ID:         uuid.NewString(),
		ProblemID:  problem.ID,
		UserID:     p.UserID,
		Code:       req.Code,
		LanguageID: lang.ID,
		Language:   lang.Name,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.submissionRepo.CreateSubmission(ctx, tx, submission)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	if err := s.queue.Enqueue(ctx, model.ExecutionJob{SubmissionID: submission.ID}); err != nil {
		s.logger.Error("failed to enqueue submission", zap.String("submission_id", submission.ID), zap.Error(err))
		msg := "execution queue unavailable"
		result := model.EvaluationResult{Status: model.StatusError, ErrorOutput: &msg}
		if uErr := s.submissionRepo.UpdateSubmissionResult(ctx, nil, submission.ID, result); uErr != nil {
			s.logger.Error("failed to mark submission as error", zap.String("submission_id", submission.ID), zap.Error(uErr))
		}
		return nil, fmt.Errorf("failed to queue submission: %w", common.ErrServiceUnavailable)
	}
	s.logger.Info("submission queued", zap.String("submission_id", submission.ID), zap.String("problem_id", problem.ID))
	return submission, nil
}

// ListSubmissions returns only the caller's own submissions for the problem.
func (s *SubmissionService) ListSubmissions(ctx context.Context, p access.Principal, problemIDOrSlug string) ([]model.Submission, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	problem, err := findProblem(ctx, s.problemRepo, problemIDOrSlug)
	if err != nil {
		return nil, err
	}
	subs, err := s.submissionRepo.GetSubmissionsForUserProblem(ctx, p.UserID, problem.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, p access.Principal, id string) (*model.Submission, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, sub.UserID); err != nil {
		return nil, err
	}
	return sub, nil
}

// RunCode evaluates synchronously and persists nothing.
func (s *SubmissionService) RunCode(ctx context.Context, p access.Principal, problemIDOrSlug string, req RunCodeRequest) (*RunCodeResult, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	lang, err := languageFor(req.LanguageID)
	if err != nil {
		return nil, err
	}
	problem, err := findProblem(ctx, s.problemRepo, problemIDOrSlug)
	if err != nil {
		return nil, err
	}
	if err := s.gate.check(ctx, p, problem); err != nil {
		return nil, err
	}

	evalReq := evaluator.NewRequest(problem, lang, req.Code)
	if len(req.Stdin) > 0 {
		evalReq.Stdin = req.Stdin
		evalReq.ExpectedOutputs = []string{}
	}
	resp, err := s.evaluator.Evaluate(ctx, evalReq)
	if err != nil {
		if !errors.Is(err, common.ErrServiceUnavailable) {
			err = fmt.Errorf("%v: %w", err, common.ErrServiceUnavailable)
		}
		s.logger.Warn("run code failed", zap.String("problem_id", problem.ID), zap.Error(err))
		return nil, err
	}
	return &RunCodeResult{EvaluationResult: resp.Result(), Stdout: resp.Stdout}, nil
}
