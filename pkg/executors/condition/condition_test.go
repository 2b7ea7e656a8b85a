package condition

import (
	"context"
	"errors"
	"testing"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/expressions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor() *ConditionExecutor {
	return NewConditionExecutor(ConditionExecutorDeps{Evaluator: expressions.NewEvaluator()})
}

func TestCondition_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		inputs    map[string]any
		variables map[string]any
		expected  bool
	}{
		{
			name:      "input comparison true",
			condition: "total > 10",
			inputs:    map[string]any{"total": float64(15)},
			expected:  true,
		},
		{
			name:      "input comparison false",
			condition: "total > 10",
			inputs:    map[string]any{"total": float64(5)},
			expected:  false,
		},
		{
			name:      "namespace variable",
			condition: `STAGE === "prod"`,
			variables: map[string]any{"STAGE": "prod"},
			expected:  true,
		},
		{
			name:      "nested access",
			condition: "report.rowCount > 0 && report.rowCount < 100",
			inputs:    map[string]any{"report": map[string]any{"rowCount": float64(42)}},
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newExecutor().Execute(context.Background(), domain.ExecutionInput{
				SessionID: "s1",
				Node: domain.Node{ID: "C", Type: domain.NodeType_Condition, Data: map[string]any{
					"condition": tt.condition,
				}},
				Inputs:    tt.inputs,
				Variables: tt.variables,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.expected, out.Outputs["result"])
			assert.Equal(t, tt.condition, out.Outputs["condition"])
		})
	}
}

func TestCondition_PipedExpression(t *testing.T) {
	out, err := newExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      domain.Node{ID: "C", Type: domain.NodeType_Condition, Data: map[string]any{}},
		Inputs:    map[string]any{"condition": "1 < 2"},
	})
	require.NoError(t, err)

	assert.Equal(t, true, out.Outputs["result"])
}

func TestCondition_MissingExpression(t *testing.T) {
	_, err := newExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      domain.Node{ID: "C", Type: domain.NodeType_Condition, Data: map[string]any{}},
	})

	var configErr *domain.ConfigurationError
	require.True(t, errors.As(err, &configErr))
}

func TestCondition_UnsafeExpressionRejected(t *testing.T) {
	_, err := newExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node: domain.Node{ID: "C", Type: domain.NodeType_Condition, Data: map[string]any{
			"condition": `total.toString() === "1"`,
		}},
		Inputs: map[string]any{"total": float64(1)},
	})

	var exprErr *domain.ExpressionError
	require.True(t, errors.As(err, &exprErr))
}
