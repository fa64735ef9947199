// Package evaluator is the HTTP boundary to the external code-execution service.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
)

type Request struct {
	SourceCode      string   `json:"sourceCode"`
	LanguageID      int      `json:"languageId"`
	Stdin           []string `json:"stdin"`
	ExpectedOutputs []string `json:"expectedOutputs"`
}

type Response struct {
	Status          string   `json:"status"`
	Runtime         *int     `json:"runtime,omitempty"` // ms
	Memory          *int     `json:"memory,omitempty"`  // KB
	TestCasesPassed int      `json:"testCasesPassed"`
	TotalTestCases  int      `json:"totalTestCases"`
	Stdout          []string `json:"stdout,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Evaluator runs source against a set of inputs.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (*Response, error)
}

// NewRequest builds an evaluation request from a problem's stored test cases,
// wrapping code in the problem's harness for the language.
func NewRequest(problem *model.Problem, lang model.Language, code string) Request {
	req := Request{
		SourceCode:      problem.AssembleSource(lang.Slug, code),
		LanguageID:      lang.ID,
		Stdin:           make([]string, 0, len(problem.TestCases)),
		ExpectedOutputs: make([]string, 0, len(problem.TestCases)),
	}
	for _, tc := range problem.TestCases {
		req.Stdin = append(req.Stdin, tc.Input)
		req.ExpectedOutputs = append(req.ExpectedOutputs, tc.Output)
	}
	return req
}

var statusAliases = map[string]model.SubmissionStatus{
	"accepted":              model.StatusAccepted,
	"wrong_answer":          model.StatusWrongAnswer,
	"wrong answer":          model.StatusWrongAnswer,
	"time_limit_exceeded":   model.StatusTimeLimitExceeded,
	"time limit exceeded":   model.StatusTimeLimitExceeded,
	"compilation_error":     model.StatusCompilationError,
	"compilation error":     model.StatusCompilationError,
	"runtime_error":         model.StatusRuntimeError,
	"runtime error":         model.StatusRuntimeError,
	"runtime error (nzec)":  model.StatusRuntimeError,
	"internal_error":        model.StatusError,
	"internal error":        model.StatusError,
	"memory_limit_exceeded": model.StatusRuntimeError,
}

// Result converts the evaluator's answer into what gets stored. Statuses the
// service does not know map to error.
func (r *Response) Result() model.EvaluationResult {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(r.Status))]
	if !ok {
		status = model.StatusError
	}
	res := model.EvaluationResult{
		Status:          status,
		RuntimeMs:       r.Runtime,
		MemoryKb:        r.Memory,
		TestCasesPassed: r.TestCasesPassed,
		TotalTestCases:  r.TotalTestCases,
	}
	if r.Error != "" {
		msg := r.Error
		res.ErrorOutput = &msg
	}
	return res
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Evaluate returns an error wrapping common.ErrServiceUnavailable on any
// transport failure or non-2xx answer.
func (c *Client) Evaluate(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("evaluator: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("evaluator: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("evaluator: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("evaluator: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(snippet)), common.ErrServiceUnavailable)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("evaluator: decode response: %v: %w", err, common.ErrServiceUnavailable)
	}
	return &out, nil
}
