package merge

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/domain"
)

// MergeExecutor unions the named outputs arriving over multiple incoming
// edges into one map. With mergeKeys configured, only those keys survive.
type MergeExecutor struct{}

func NewMergeExecutor() *MergeExecutor {
	return &MergeExecutor{}
}

type MergeParams struct {
	MergeKeys []string `json:"mergeKeys,omitempty"`
}

func (e *MergeExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := MergeParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	// Same-key collisions across edges are already folded by the input
	// resolver, so the union here is key by key.
	merged := map[string]any{}

	for key, value := range input.Inputs {
		merged[key] = value
	}

	if len(p.MergeKeys) > 0 {
		restricted := map[string]any{}

		for _, key := range p.MergeKeys {
			if value, ok := merged[key]; ok {
				restricted[key] = value
			}
		}

		merged = restricted
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{"mergedData": merged},
	}, nil
}
