package condition

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
	"github.com/flowdeck/flowdeck/pkg/expressions"
)

// ConditionExecutor evaluates a boolean expression through the restricted
// evaluator. The expression comes from node configuration or is piped in
// through the "condition" input.
type ConditionExecutor struct {
	evaluator *expressions.Evaluator
}

type ConditionExecutorDeps struct {
	Evaluator *expressions.Evaluator
}

func NewConditionExecutor(deps ConditionExecutorDeps) *ConditionExecutor {
	return &ConditionExecutor{evaluator: deps.Evaluator}
}

type ConditionParams struct {
	Condition string `json:"condition"`
}

func (e *ConditionExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := ConditionParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.Condition == "" {
		if piped, ok := input.Inputs["condition"].(string); ok {
			p.Condition = piped
		}
	}

	if p.Condition == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "condition", Reason: "is required"}
	}

	resolved := engine.Resolve(p.Condition, input.Variables)

	scope := map[string]any{}

	for key, value := range input.Variables {
		scope[key] = value
	}

	for key, value := range input.Inputs {
		scope[key] = value
	}

	result, err := e.evaluator.EvaluateBool(resolved, scope)
	if err != nil {
		return domain.ExecutionOutput{}, err
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"result":    result,
			"condition": p.Condition,
		},
	}, nil
}
