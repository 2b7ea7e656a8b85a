package template

import (
	"context"
	"errors"
	"testing"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templateNode(data map[string]any) domain.Node {
	return domain.Node{ID: "T", Type: domain.NodeType_Template, Data: data}
}

func TestTemplate_Substitution(t *testing.T) {
	out, err := NewTemplateExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node: templateNode(map[string]any{
			"template": "Report: {total} rows on {DATE}",
		}),
		Inputs:    map[string]any{"total": float64(5)},
		Variables: map[string]any{"DATE": "2026-08-29"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Report: 5 rows on 2026-08-29", out.Outputs["result"])
	assert.Equal(t, 2, out.Outputs["replacedCount"])
	assert.Equal(t, []string{"DATE", "total"}, out.Outputs["availableVariables"])
}

func TestTemplate_InputsShadowVariables(t *testing.T) {
	out, err := NewTemplateExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      templateNode(map[string]any{"template": "{value}"}),
		Inputs:    map[string]any{"value": "from-edge"},
		Variables: map[string]any{"value": "from-bus"},
	})
	require.NoError(t, err)

	assert.Equal(t, "from-edge", out.Outputs["result"])
}

func TestTemplate_PlaceholderFormats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		expected string
	}{
		{"double ignores single tokens", "double", "{A} 2"},
		{"both resolves everything", "both", "1 2"},
		{"default is both", "", "1 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewTemplateExecutor().Execute(context.Background(), domain.ExecutionInput{
				SessionID: "s1",
				Node: templateNode(map[string]any{
					"template":          "{A} {{B}}",
					"placeholderFormat": tt.format,
				}),
				Variables: map[string]any{"A": "1", "B": "2"},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.expected, out.Outputs["result"])
		})
	}
}

func TestTemplate_UnresolvedPreserved(t *testing.T) {
	out, err := NewTemplateExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      templateNode(map[string]any{"template": "Hello {NAME}"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello {NAME}", out.Outputs["result"])
	assert.Equal(t, 0, out.Outputs["replacedCount"])
}

func TestTemplate_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"missing template", map[string]any{}},
		{"bad placeholder format", map[string]any{"template": "x", "placeholderFormat": "triple"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplateExecutor().Execute(context.Background(), domain.ExecutionInput{
				SessionID: "s1",
				Node:      templateNode(tt.data),
			})

			var configErr *domain.ConfigurationError
			require.True(t, errors.As(err, &configErr))
		})
	}
}
