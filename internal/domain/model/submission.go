package model

import "time"

type SubmissionStatus string

const (
	StatusPending           SubmissionStatus = "pending"
	StatusAccepted          SubmissionStatus = "accepted"
	StatusWrongAnswer       SubmissionStatus = "wrong_answer"
	StatusTimeLimitExceeded SubmissionStatus = "time_limit_exceeded"
	StatusCompilationError  SubmissionStatus = "compilation_error"
	StatusRuntimeError      SubmissionStatus = "runtime_error"
	StatusError             SubmissionStatus = "error" // evaluator unreachable or internal failure
)

func (s SubmissionStatus) Terminal() bool {
	return s != StatusPending && s != ""
}

type Submission struct {
	ID              string           `json:"id"`
	ProblemID       string           `json:"problem_id"`
	UserID          string           `json:"user_id"`
	Code            string           `json:"code"`
	LanguageID      int              `json:"language_id"`
	Language        string           `json:"language,omitempty"` // display name
	Status          SubmissionStatus `json:"status"`
	RuntimeMs       *int             `json:"runtime_ms,omitempty"`
	MemoryKb        *int             `json:"memory_kb,omitempty"`
	TestCasesPassed int              `json:"test_cases_passed"`
	TotalTestCases  int              `json:"total_test_cases"`
	ErrorOutput     *string          `json:"error_output,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// EvaluationResult is what gets persisted once the evaluator has answered.
type EvaluationResult struct {
	Status          SubmissionStatus `json:"status"`
	RuntimeMs       *int             `json:"runtime_ms,omitempty"`
	MemoryKb        *int             `json:"memory_kb,omitempty"`
	TestCasesPassed int              `json:"test_cases_passed"`
	TotalTestCases  int              `json:"total_test_cases"`
	ErrorOutput     *string          `json:"error_output,omitempty"`
}
