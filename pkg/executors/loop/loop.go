package loop

import (
	"context"
	"fmt"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/rs/zerolog/log"
)

// LoopExecutor iterates the referenced array, running a nested sequential
// pass per item. The iteration count is checked against the hard cap before
// any item runs; exceeding it is a configuration fault, never a silent
// truncation.
type LoopExecutor struct {
	nested        domain.NestedRunner
	maxIterations int
}

type LoopExecutorDeps struct {
	Nested        domain.NestedRunner
	MaxIterations int
}

func NewLoopExecutor(deps LoopExecutorDeps) *LoopExecutor {
	return &LoopExecutor{
		nested:        deps.Nested,
		maxIterations: deps.MaxIterations,
	}
}

type LoopParams struct {
	ArrayKey string `json:"arrayKey"`
	ItemKey  string `json:"itemKey"`
	IndexKey string `json:"indexKey"`
	// Body is an optional child graph executed once per item with the item
	// and index seeded under itemKey/indexKey. Without a body each
	// iteration's result is the item itself.
	Body *domain.WorkflowDefinition `json:"body,omitempty"`
}

func (e *LoopExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := LoopParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.ArrayKey == "" || p.ItemKey == "" || p.IndexKey == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "arrayKey/itemKey/indexKey", Reason: "are required"}
	}

	source, ok := input.Inputs[p.ArrayKey]
	if !ok {
		source, ok = input.Variables[p.ArrayKey]
	}

	if !ok {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "arrayKey", Reason: fmt.Sprintf("no array named %q in node input", p.ArrayKey)}
	}

	items, ok := source.([]any)
	if !ok {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "arrayKey", Reason: fmt.Sprintf("value %q is not an array", p.ArrayKey)}
	}

	if len(items) > e.maxIterations {
		return domain.ExecutionOutput{}, &domain.ResourceLimitExceeded{
			NodeID: input.Node.ID,
			Limit:  fmt.Sprintf("loop iterations > %d", e.maxIterations),
			Value:  len(items),
		}
	}

	results := make([]any, 0, len(items))
	errs := []any{}
	successCount := 0

	for index, item := range items {
		if ctx.Err() != nil {
			return domain.ExecutionOutput{}, ctx.Err()
		}

		result, err := e.runIteration(ctx, input, p, item, index)
		if err != nil {
			log.Warn().Err(err).
				Str("node_id", input.Node.ID).
				Int("iteration", index).
				Msg("Loop iteration failed")

			errs = append(errs, map[string]any{
				"index": index,
				"error": err.Error(),
			})

			continue
		}

		results = append(results, result)
		successCount++
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"iterations":   len(items),
			"results":      results,
			"successCount": successCount,
			"errorCount":   len(errs),
			"errors":       errs,
		},
	}, nil
}

func (e *LoopExecutor) runIteration(ctx context.Context, input domain.ExecutionInput, p LoopParams, item any, index int) (any, error) {
	if p.Body == nil || len(p.Body.Nodes) == 0 {
		return item, nil
	}

	seed := map[string]any{}

	for key, value := range input.Variables {
		seed[key] = value
	}

	seed[p.ItemKey] = item
	seed[p.IndexKey] = float64(index)

	return e.nested.RunNested(ctx, *p.Body, input.SessionID, seed)
}
