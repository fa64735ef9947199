package llm

import (
	"context"
	"strings"
	"time"
)

type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded" // provider failed, fallback value used
	OutcomeFailed   Outcome = "failed"
)

// Result is what every LLM call returns. Callers pick the fallback.
type Result struct {
	Value   string
	Outcome Outcome
	Err     error
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// OrFallback keeps a successful value, otherwise substitutes fallback and
// marks the result degraded. Err is preserved for logging.
func (r Result) OrFallback(fallback string) Result {
	if r.Outcome == OutcomeOK {
		return r
	}
	return Result{Value: fallback, Outcome: OutcomeDegraded, Err: r.Err}
}

// Call runs one generation bounded by timeout. Empty output counts as a
// failure.
func Call(ctx context.Context, p Provider, prompt string, timeout time.Duration) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := p.Generate(ctx, prompt)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Outcome: OutcomeFailed, Err: &ProviderError{Provider: p.Name(), Code: ErrCodeInvalidInput, Message: "empty response generated"}}
	}
	return Result{Value: text, Outcome: OutcomeOK}
}
