package prompt

import (
	"context"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
)

const (
	MinMaxTokens     = 100
	MaxMaxTokens     = 4000
	DefaultMaxTokens = 1500

	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	DefaultTemperature = 0.7
)

// PromptExecutor resolves variables in the system and user prompts and calls
// the text-completion collaborator. Prompts come inline from the node or from
// a stored definition referenced by promptId.
type PromptExecutor struct {
	completion  domain.CompletionService
	definitions domain.DefinitionStore
	timeout     time.Duration
}

type PromptExecutorDeps struct {
	Completion  domain.CompletionService
	Definitions domain.DefinitionStore
	Timeout     time.Duration
}

func NewPromptExecutor(deps PromptExecutorDeps) *PromptExecutor {
	return &PromptExecutor{
		completion:  deps.Completion,
		definitions: deps.Definitions,
		timeout:     deps.Timeout,
	}
}

type PromptParams struct {
	PromptID           string   `json:"promptId,omitempty"`
	SystemPrompt       string   `json:"systemPrompt,omitempty"`
	UserPromptTemplate string   `json:"userPromptTemplate,omitempty"`
	MaxTokens          *int     `json:"maxTokens,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
}

func (e *PromptExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := PromptParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	systemPrompt := p.SystemPrompt
	userPrompt := p.UserPromptTemplate

	if userPrompt == "" && p.PromptID != "" {
		stored, err := e.definitions.GetPrompt(ctx, p.PromptID)
		if err != nil {
			return domain.ExecutionOutput{}, &domain.CollaboratorError{NodeID: input.Node.ID, NodeType: input.Node.Type, Cause: err}
		}

		userPrompt = stored.UserPrompt

		if systemPrompt == "" {
			systemPrompt = stored.SystemPrompt
		}
	}

	if userPrompt == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "userPromptTemplate", Reason: "is required (inline or via promptId)"}
	}

	maxTokens := DefaultMaxTokens

	if p.MaxTokens != nil {
		maxTokens = *p.MaxTokens

		if maxTokens < MinMaxTokens || maxTokens > MaxMaxTokens {
			return domain.ExecutionOutput{}, &domain.ResourceLimitExceeded{
				NodeID: input.Node.ID,
				Limit:  "maxTokens outside 100-4000",
				Value:  maxTokens,
			}
		}
	}

	temperature := DefaultTemperature

	if p.Temperature != nil {
		temperature = *p.Temperature

		if temperature < MinTemperature || temperature > MaxTemperature {
			return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "temperature", Reason: "must be within 0.0-2.0"}
		}
	}

	namespace := map[string]any{}

	for key, value := range input.Variables {
		namespace[key] = value
	}

	for key, value := range input.Inputs {
		namespace[key] = value
	}

	resolvedSystem := engine.Resolve(systemPrompt, namespace)
	resolvedUser, report := engine.ResolveWithReport(userPrompt, namespace, engine.PlaceholderBoth)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.completion.Complete(callCtx, domain.CompletionRequest{
		SystemPrompt: resolvedSystem,
		UserPrompt:   resolvedUser,
		MaxTokens:    maxTokens,
		Temperature:  float32(temperature),
	})
	if err != nil {
		return domain.ExecutionOutput{}, &domain.CollaboratorError{NodeID: input.Node.ID, NodeType: input.Node.Type, Cause: err}
	}

	replaced := map[string]any{}

	for key, value := range report.Replaced {
		replaced[key] = value
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"response":          result.Text,
			"promptId":          p.PromptID,
			"replacedVariables": replaced,
		},
	}, nil
}
