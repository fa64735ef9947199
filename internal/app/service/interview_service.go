package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"
	"codeprep/internal/platform/llm"
	"codeprep/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	questionCount          = 5
	defaultInterviewType   = "technical"
	defaultInterviewLength = 30
	defaultInterviewerName = "Alex"

	fallbackReply    = "Thanks. Could you walk me through your reasoning in a bit more detail?"
	fallbackFeedback = "Thank you for completing the interview. Automated feedback is unavailable right now; review your answers against the questions and focus on explaining trade-offs clearly."
)

var defaultQuestions = map[string][]string{
	"technical": {
		"Walk me through a project you are proud of and the hardest technical problem in it.",
		"How would you find the first non-repeating character in a string, and what is the complexity?",
		"Explain the difference between a process and a thread.",
		"How would you design a rate limiter for a public API?",
		"Tell me about a bug that took you a long time to find. How did you track it down?",
	},
	"behavioral": {
		"Tell me about yourself.",
		"Describe a time you disagreed with a teammate. How did you resolve it?",
		"Tell me about a deadline you missed and what you learned.",
		"Describe a situation where you had to learn something quickly.",
		"Why are you interested in this role?",
	},
}

// SessionStore keeps the running conversation of an interview.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, turns ...model.Turn) error
	History(ctx context.Context, sessionID string) ([]model.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

type InterviewService struct {
	repo     repository.InterviewRepository
	sessions SessionStore
	provider llm.Provider
	prompts  *llm.Prompts
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewInterviewService(
	repo repository.InterviewRepository,
	sessions SessionStore,
	provider llm.Provider,
	prompts *llm.Prompts,
	timeout time.Duration,
	logger *zap.Logger,
) *InterviewService {
	return &InterviewService{
		repo:     repo,
		sessions: sessions,
		provider: provider,
		prompts:  prompts,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateInterviewRequest struct {
	Position        string     `json:"position" validate:"required,max=200"`
	CompanyName     string     `json:"company_name" validate:"max=200"`
	JobDescription  string     `json:"job_description" validate:"max=5000"`
	InterviewType   string     `json:"interview_type" validate:"omitempty,max=50"`
	Difficulty      string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	DurationMinutes int        `json:"duration" validate:"omitempty,gte=5,lte=180"`
	InterviewerName string     `json:"interviewer_name" validate:"max=100"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
}

type UpdateInterviewRequest struct {
	Status      *model.InterviewStatus `json:"status,omitempty"`
	ScheduledAt *time.Time             `json:"scheduled_at,omitempty"`
	Rating      *int                   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

type MessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type MessageReply struct {
	Reply    string       `json:"reply"`
	Degraded bool         `json:"degraded"`
	History  []model.Turn `json:"history"`
}

func (s *InterviewService) Create(ctx context.Context, p access.Principal, req CreateInterviewRequest) (*model.Interview, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	req.Position = strings.TrimSpace(req.Position)
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	iv := &model.Interview{
		ID:              uuid.NewString(),
		UserID:          p.UserID,
		Position:        req.Position,
		CompanyName:     strings.TrimSpace(req.CompanyName),
		JobDescription:  strings.TrimSpace(req.JobDescription),
		InterviewType:   strings.ToLower(strings.TrimSpace(req.InterviewType)),
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
		InterviewerName: strings.TrimSpace(req.InterviewerName),
		ScheduledAt:     req.ScheduledAt,
		Status:          model.InterviewScheduled,
	}
	if iv.InterviewType == "" {
		iv.InterviewType = defaultInterviewType
	}
	if iv.Difficulty == "" {
		iv.Difficulty = string(model.DifficultyMedium)
	}
	if iv.DurationMinutes == 0 {
		iv.DurationMinutes = defaultInterviewLength
	}
	if iv.InterviewerName == "" {
		iv.InterviewerName = defaultInterviewerName
	}
	iv.Questions = s.generateQuestions(ctx, iv)

	if err := s.repo.Create(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	return iv, nil
}

func (s *InterviewService) generateQuestions(ctx context.Context, iv *model.Interview) []string {
	fallback := defaultQuestions[iv.InterviewType]
	if fallback == nil {
		fallback = defaultQuestions[defaultInterviewType]
	}

	prompt, err := s.prompts.Build(llm.PromptInterviewQuestions, map[string]string{
		"Count":          strconv.Itoa(questionCount),
		"InterviewType":  iv.InterviewType,
		"Position":       iv.Position,
		"CompanyName":    orDefault(iv.CompanyName, "a technology company"),
		"Difficulty":     iv.Difficulty,
		"JobDescription": orDefault(iv.JobDescription, "Not provided."),
	})
	if err != nil {
		s.logger.Error("failed to build questions prompt", zap.Error(err))
		metrics.LLMCalls.WithLabelValues("questions", string(llm.OutcomeDegraded)).Inc()
		return append([]string(nil), fallback...)
	}

	res := llm.Call(ctx, s.provider, prompt, s.timeout)
	questions := parseQuestions(res.Value)
	if res.OK() && len(questions) == 0 {
		res = llm.Result{Outcome: llm.OutcomeFailed, Err: fmt.Errorf("no questions in response")}
	}
	if !res.OK() {
		res = res.OrFallback(strings.Join(fallback, "\n"))
		questions = append([]string(nil), fallback...)
	}
	s.record("questions", res)
	if len(questions) > questionCount {
		questions = questions[:questionCount]
	}
	return questions
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// parseQuestions splits a model answer into one question per non-empty line,
// dropping bullets and numbering.
func parseQuestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (s *InterviewService) List(ctx context.Context, p access.Principal) ([]model.Interview, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, p.UserID)
}

func (s *InterviewService) Get(ctx context.Context, p access.Principal, id string) (*model.Interview, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	iv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, iv.UserID); err != nil {
		return nil, err
	}
	return iv, nil
}

// Update applies a partial change. Moving to completed generates feedback
// exactly once; repeating an update that changes nothing returns the stored
// interview untouched.
func (s *InterviewService) Update(ctx context.Context, p access.Principal, id string, req UpdateInterviewRequest) (*model.Interview, error) {
	iv, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("status must be one of [scheduled pending in_progress completed]: %w", common.ErrValidation)
	}

	var patch model.InterviewPatch
	if req.Status != nil && *req.Status != iv.Status {
		patch.Status = req.Status
	}
	if req.ScheduledAt != nil && (iv.ScheduledAt == nil || !req.ScheduledAt.Equal(*iv.ScheduledAt)) {
		patch.ScheduledAt = req.ScheduledAt
	}
	if req.Rating != nil && (iv.Rating == nil || *req.Rating != *iv.Rating) {
		patch.Rating = req.Rating
	}
	if patch.Status != nil && *patch.Status == model.InterviewCompleted && iv.Feedback == nil {
		feedback := s.generateFeedback(ctx, iv)
		patch.Feedback = &feedback
	}
	if patch.Status == nil && patch.ScheduledAt == nil && patch.Rating == nil {
		return iv, nil
	}

	updated, err := s.repo.Update(ctx, iv.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}
	if updated.Status == model.InterviewCompleted {
		if err := s.sessions.Clear(ctx, iv.ID); err != nil {
			s.logger.Warn("failed to clear interview session", zap.String("interview_id", iv.ID), zap.Error(err))
		}
	}
	return updated, nil
}

func (s *InterviewService) generateFeedback(ctx context.Context, iv *model.Interview) string {
	history, err := s.sessions.History(ctx, iv.ID)
	if err != nil {
		s.logger.Warn("failed to load interview session", zap.String("interview_id", iv.ID), zap.Error(err))
	}
	prompt, err := s.prompts.Build(llm.PromptInterviewFeedback, map[string]string{
		"Position":  iv.Position,
		"Questions": strings.Join(iv.Questions, "\n"),
		"History":   formatTranscript(history),
	})
	if err != nil {
		s.logger.Error("failed to build feedback prompt", zap.Error(err))
		metrics.LLMCalls.WithLabelValues("feedback", string(llm.OutcomeDegraded)).Inc()
		return fallbackFeedback
	}
	res := llm.Call(ctx, s.provider, prompt, s.timeout).OrFallback(fallbackFeedback)
	s.record("feedback", res)
	return res.Value
}

// SendMessage records the candidate's turn, asks for the interviewer's next
// line and records that too.
func (s *InterviewService) SendMessage(ctx context.Context, p access.Principal, id string, req MessageRequest) (*MessageReply, error) {
	iv, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	// Status only moves through an explicit update.
	if iv.Status != model.InterviewInProgress {
		return nil, fmt.Errorf("interview is %s, not in progress: %w", iv.Status, common.ErrBadRequest)
	}

	history, err := s.sessions.History(ctx, iv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	res := llm.Result{Outcome: llm.OutcomeFailed}
	prompt, err := s.prompts.Build(llm.PromptInterviewerReply, map[string]string{
		"InterviewerName": iv.InterviewerName,
		"InterviewType":   iv.InterviewType,
		"Position":        iv.Position,
		"Questions":       strings.Join(iv.Questions, "\n"),
		"History":         formatTranscript(history),
		"Message":         req.Content,
	})
	if err != nil {
		s.logger.Error("failed to build reply prompt", zap.Error(err))
		res.Err = err
	} else {
		res = llm.Call(ctx, s.provider, prompt, s.timeout)
	}
	res = res.OrFallback(fallbackReply)
	s.record("reply", res)

	now := s.now().UTC()
	candidate := model.Turn{Role: model.TurnCandidate, Content: req.Content, At: now}
	interviewer := model.Turn{Role: model.TurnInterviewer, Content: res.Value, At: now}
	if err := s.sessions.Append(ctx, iv.ID, candidate, interviewer); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &MessageReply{
		Reply:    res.Value,
		Degraded: res.Outcome == llm.OutcomeDegraded,
		History:  append(history, candidate, interviewer),
	}, nil
}

func (s *InterviewService) record(operation string, res llm.Result) {
	metrics.LLMCalls.WithLabelValues(operation, string(res.Outcome)).Inc()
	if res.Outcome != llm.OutcomeOK {
		s.logger.Warn("llm call degraded", zap.String("operation", operation), zap.String("provider", s.provider.Name()), zap.Error(res.Err))
	}
}

func formatTranscript(turns []model.Turn) string {
	if len(turns) == 0 {
		return "(no conversation yet)"
	}
	var b strings.Builder
	for _, t := range turns {
		role := "Interviewer"
		if t.Role == model.TurnCandidate {
			role = "Candidate"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
