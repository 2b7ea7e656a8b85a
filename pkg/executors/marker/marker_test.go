package marker

import (
	"context"
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_PassThrough(t *testing.T) {
	out, err := NewStartExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      domain.Node{ID: "S", Type: domain.NodeType_Start},
		Inputs:    map[string]any{"seed": "value"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"seed": "value"}, out.Outputs)
}

func TestEnd_StampsCompletion(t *testing.T) {
	out, err := NewEndExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      domain.Node{ID: "E", Type: domain.NodeType_End},
		Inputs:    map[string]any{"result": "done"},
	})
	require.NoError(t, err)

	assert.Equal(t, "done", out.Outputs["result"])
	assert.Equal(t, true, out.Outputs["workflowEnd"])

	completedAt, ok := out.Outputs["completedAt"].(string)
	require.True(t, ok)

	_, parseErr := time.Parse(time.RFC3339, completedAt)
	assert.NoError(t, parseErr)
}
