package merge

import (
	"context"
	"testing"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeNode(data map[string]any) domain.Node {
	return domain.Node{ID: "M", Type: domain.NodeType_Merge, Data: data}
}

func TestMerge_UnionsInputs(t *testing.T) {
	out, err := NewMergeExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      mergeNode(map[string]any{}),
		Inputs: map[string]any{
			"orders":   []any{"a", "b"},
			"customer": map[string]any{"id": float64(7)},
			"count":    float64(2),
		},
	})
	require.NoError(t, err)

	merged, ok := out.Outputs["mergedData"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, merged["orders"])
	assert.Equal(t, map[string]any{"id": float64(7)}, merged["customer"])
	assert.Equal(t, float64(2), merged["count"])
}

func TestMerge_KeyRestriction(t *testing.T) {
	out, err := NewMergeExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      mergeNode(map[string]any{"mergeKeys": []any{"kept"}}),
		Inputs: map[string]any{
			"kept":    "yes",
			"dropped": "no",
		},
	})
	require.NoError(t, err)

	merged := out.Outputs["mergedData"].(map[string]any)
	assert.Equal(t, map[string]any{"kept": "yes"}, merged)
}

func TestMerge_EmptyInputs(t *testing.T) {
	out, err := NewMergeExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      mergeNode(map[string]any{}),
		Inputs:    map[string]any{},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{}, out.Outputs["mergedData"])
}
