// Package marker implements the start and end pass-through nodes.
package marker

import (
	"context"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
)

// StartExecutor passes its input map through unchanged.
type StartExecutor struct{}

func NewStartExecutor() *StartExecutor {
	return &StartExecutor{}
}

func (e *StartExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	outputs := map[string]any{}

	for key, value := range input.Inputs {
		outputs[key] = value
	}

	return domain.ExecutionOutput{Outputs: outputs}, nil
}

// EndExecutor passes its input through and stamps completion metadata.
type EndExecutor struct{}

func NewEndExecutor() *EndExecutor {
	return &EndExecutor{}
}

func (e *EndExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	outputs := map[string]any{}

	for key, value := range input.Inputs {
		outputs[key] = value
	}

	outputs["workflowEnd"] = true
	outputs["completedAt"] = time.Now().UTC().Format(time.RFC3339)

	return domain.ExecutionOutput{Outputs: outputs}, nil
}
