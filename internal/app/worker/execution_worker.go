package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"
	"codeprep/internal/platform/evaluator"
	"codeprep/internal/platform/metrics"
	"codeprep/internal/platform/queue"

	"go.uber.org/zap"
)

// JobQueue is the execution queue as the worker sees it.
type JobQueue interface {
	Enqueue(ctx context.Context, job model.ExecutionJob) error
	Dequeue(ctx context.Context, timeout time.Duration) (*model.ExecutionJob, error)
}

// JobLocker guards a submission against concurrent evaluation.
type JobLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) (bool, error)
}

type Options struct {
	LockTTL     time.Duration
	MaxAttempts int
	PollTimeout time.Duration
	// ErrorBackoff is the pause after a queue error other than an empty poll.
	ErrorBackoff time.Duration
}

type ExecutionWorker struct {
	queue          JobQueue
	locker         JobLocker
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	evaluator      evaluator.Evaluator
	logger         *zap.Logger
	opts           Options
}

func NewExecutionWorker(
	q JobQueue,
	locker JobLocker,
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	eval evaluator.Evaluator,
	logger *zap.Logger,
	opts Options,
) *ExecutionWorker {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 5 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	return &ExecutionWorker{
		queue:          q,
		locker:         locker,
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		evaluator:      eval,
		logger:         logger,
		opts:           opts,
	}
}

// Start pops jobs until ctx is cancelled. Jobs are processed one at a time.
func (w *ExecutionWorker) Start(ctx context.Context) {
	w.logger.Info("execution worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("execution worker stopping")
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.opts.PollTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				w.logger.Info("execution worker stopping")
				return
			}
			w.logger.Error("failed to pop execution job", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.opts.ErrorBackoff):
			}
			continue
		}
		w.Process(ctx, *job)
	}
}

// Process evaluates one job under the submission's lock. A job whose lock is
// held elsewhere is a duplicate delivery and is dropped. Evaluator failures
// are retried until MaxAttempts, then the submission is marked error.
func (w *ExecutionWorker) Process(ctx context.Context, job model.ExecutionJob) {
	log := w.logger.With(zap.String("submission_id", job.SubmissionID), zap.Int("attempt", job.Attempts+1))

	token, ok, err := w.locker.Acquire(ctx, job.SubmissionID, w.opts.LockTTL)
	if err != nil {
		log.Error("failed to acquire execution lock", zap.Error(err))
		w.retry(ctx, log, job, err)
		return
	}
	if !ok {
		log.Info("submission is already being evaluated, dropping duplicate job")
		return
	}

	retryErr := w.evaluate(ctx, log, job)

	// Released before any requeue so the next attempt can take the lock.
	released, err := w.locker.Release(context.WithoutCancel(ctx), job.SubmissionID, token)
	if err != nil {
		log.Error("failed to release execution lock", zap.Error(err))
	} else if !released {
		log.Warn("execution lock expired before release")
	}

	if retryErr != nil {
		w.retry(ctx, log, job, retryErr)
	}
}

// evaluate returns a non-nil error only when the job should be retried.
func (w *ExecutionWorker) evaluate(ctx context.Context, log *zap.Logger, job model.ExecutionJob) error {
	sub, err := w.submissionRepo.GetSubmissionByID(ctx, job.SubmissionID)
	if errors.Is(err, common.ErrNotFound) {
		log.Warn("submission no longer exists, dropping job")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if sub.Status.Terminal() {
		log.Info("submission already evaluated", zap.String("status", string(sub.Status)))
		return nil
	}

	problem, err := w.problemRepo.FindProblemByID(ctx, sub.ProblemID)
	if errors.Is(err, common.ErrNotFound) {
		w.fail(ctx, log, sub.ID, "problem no longer exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load problem: %w", err)
	}
	lang, ok := model.LanguageByID(sub.LanguageID)
	if !ok {
		w.fail(ctx, log, sub.ID, fmt.Sprintf("unsupported language id %d", sub.LanguageID))
		return nil
	}

	resp, err := w.evaluator.Evaluate(ctx, evaluator.NewRequest(problem, lang, sub.Code))
	if err != nil {
		return err
	}
	result := resp.Result()
	if err := w.submissionRepo.UpdateSubmissionResult(ctx, nil, sub.ID, result); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	metrics.SubmissionsEvaluated.WithLabelValues(string(result.Status)).Inc()
	log.Info("submission evaluated",
		zap.String("status", string(result.Status)),
		zap.Int("passed", result.TestCasesPassed),
		zap.Int("total", result.TotalTestCases))
	return nil
}

func (w *ExecutionWorker) retry(ctx context.Context, log *zap.Logger, job model.ExecutionJob, cause error) {
	if ctx.Err() != nil {
		log.Warn("shutting down, leaving submission pending", zap.Error(cause))
		return
	}
	if job.Attempts+1 >= w.opts.MaxAttempts {
		log.Error("evaluation failed, giving up", zap.Error(cause))
		w.fail(ctx, log, job.SubmissionID, "evaluation failed after retries")
		return
	}
	next := model.ExecutionJob{SubmissionID: job.SubmissionID, Attempts: job.Attempts + 1}
	if err := w.queue.Enqueue(ctx, next); err != nil {
		log.Error("failed to requeue job", zap.Error(err))
		w.fail(ctx, log, job.SubmissionID, "evaluation failed and could not be retried")
		return
	}
	metrics.SubmissionRetries.Inc()
	log.Warn("evaluation failed, job requeued", zap.Error(cause))
}

// fail records the deterministic degraded outcome for a submission.
func (w *ExecutionWorker) fail(ctx context.Context, log *zap.Logger, submissionID, reason string) {
	result := model.EvaluationResult{Status: model.StatusError, ErrorOutput: &reason}
	if err := w.submissionRepo.UpdateSubmissionResult(ctx, nil, submissionID, result); err != nil {
		log.Error("failed to mark submission as error", zap.Error(err))
		return
	}
	metrics.SubmissionsEvaluated.WithLabelValues(string(model.StatusError)).Inc()
}
