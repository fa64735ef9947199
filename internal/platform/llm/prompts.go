package llm

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

const (
	PromptInterviewQuestions = "interview_questions"
	PromptInterviewerReply   = "interviewer_reply"
	PromptInterviewFeedback  = "interview_feedback"
)

type PromptTemplate struct {
	BasePrompt string `yaml:"base_prompt"`
	Prompt     string `yaml:"prompt"`
}

// Prompts holds the embedded templates, keyed by file name without extension.
type Prompts struct {
	prompts map[string]string
}

func LoadPrompts() (*Prompts, error) {
	pm := &Prompts{prompts: make(map[string]string)}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}
		var tmpl PromptTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}

		var full strings.Builder
		if tmpl.BasePrompt != "" {
			full.WriteString(strings.TrimSpace(tmpl.BasePrompt))
			full.WriteString("\n\n")
		}
		full.WriteString(strings.TrimSpace(tmpl.Prompt))
		pm.prompts[strings.TrimSuffix(entry.Name(), ".yaml")] = full.String()
	}
	return pm, nil
}

// Build fills {{.Key}} placeholders of the named template. Placeholders
// without a value are left as-is.
func (pm *Prompts) Build(name string, vars map[string]string) (string, error) {
	tmpl, ok := pm.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt template not found: %s", name)
	}
	for k, v := range vars {
		tmpl = strings.ReplaceAll(tmpl, "{{."+k+"}}", v)
	}
	return tmpl, nil
}
