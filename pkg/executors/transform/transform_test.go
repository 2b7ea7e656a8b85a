package transform

import (
	"context"
	"testing"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/expressions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor() *TransformExecutor {
	return NewTransformExecutor(TransformExecutorDeps{Evaluator: expressions.NewEvaluator()})
}

func execute(t *testing.T, data map[string]any, inputs map[string]any) (map[string]any, error) {
	t.Helper()

	out, err := newExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      domain.Node{ID: "T", Type: domain.NodeType_Transform, Data: data},
		Inputs:    inputs,
	})

	return out.Outputs, err
}

func TestTransform_JSONParse(t *testing.T) {
	outputs, err := execute(t, map[string]any{
		"transformType": "json_parse",
		"inputKey":      "raw",
		"outputKey":     "parsed",
	}, map[string]any{
		"raw": `{"a": 1, "b": [true]}`,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": float64(1), "b": []any{true}}, outputs["parsed"])
}

func TestTransform_JSONParse_StructuredPassthrough(t *testing.T) {
	source := map[string]any{"a": float64(1)}

	outputs, err := execute(t, map[string]any{
		"transformType": "json_parse",
		"inputKey":      "raw",
		"outputKey":     "parsed",
	}, map[string]any{"raw": source})
	require.NoError(t, err)

	assert.Equal(t, source, outputs["parsed"])
}

func TestTransform_JSONStringify(t *testing.T) {
	outputs, err := execute(t, map[string]any{
		"transformType": "json_stringify",
		"inputKey":      "data",
		"outputKey":     "text",
	}, map[string]any{
		"data": map[string]any{"a": float64(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"a":1}`, outputs["text"])
}

func TestTransform_ExtractFields(t *testing.T) {
	outputs, err := execute(t, map[string]any{
		"transformType": "extract_fields",
		"inputKey":      "rows",
		"outputKey":     "slim",
		"fields":        []any{"id", "name"},
	}, map[string]any{
		"rows": []any{
			map[string]any{"id": float64(1), "name": "a", "secret": "x"},
			map[string]any{"id": float64(2), "name": "b", "secret": "y"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"id": float64(1), "name": "a"},
		map[string]any{"id": float64(2), "name": "b"},
	}, outputs["slim"])
}

func TestTransform_MapArray(t *testing.T) {
	outputs, err := execute(t, map[string]any{
		"transformType": "map_array",
		"inputKey":      "rows",
		"outputKey":     "amounts",
		"expression":    "item.amount * 2",
	}, map[string]any{
		"rows": []any{
			map[string]any{"amount": float64(5)},
			map[string]any{"amount": float64(7)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{float64(10), float64(14)}, outputs["amounts"])
}

func TestTransform_MapArray_IndexInScope(t *testing.T) {
	outputs, err := execute(t, map[string]any{
		"transformType": "map_array",
		"inputKey":      "rows",
		"outputKey":     "indexed",
		"expression":    "index",
	}, map[string]any{
		"rows": []any{"a", "b", "c"},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{float64(0), float64(1), float64(2)}, outputs["indexed"])
}

func TestTransform_FilterArray(t *testing.T) {
	outputs, err := execute(t, map[string]any{
		"transformType": "filter_array",
		"inputKey":      "rows",
		"outputKey":     "big",
		"expression":    "item.amount > 10",
	}, map[string]any{
		"rows": []any{
			map[string]any{"amount": float64(5)},
			map[string]any{"amount": float64(15)},
			map[string]any{"amount": float64(25)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"amount": float64(15)},
		map[string]any{"amount": float64(25)},
	}, outputs["big"])
}

func TestTransform_Aggregate(t *testing.T) {
	rows := []any{
		map[string]any{"amount": float64(10)},
		map[string]any{"amount": float64(20)},
		map[string]any{"other": "skipped"},
	}

	tests := []struct {
		name          string
		aggregateType string
		field         string
		expected      any
	}{
		{"count", "count", "", float64(3)},
		{"sum", "sum", "amount", float64(30)},
		{"avg skips non numeric rows", "avg", "amount", float64(15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputs, err := execute(t, map[string]any{
				"transformType": "aggregate",
				"aggregateType": tt.aggregateType,
				"field":         tt.field,
				"inputKey":      "rows",
				"outputKey":     "value",
			}, map[string]any{"rows": rows})
			require.NoError(t, err)

			assert.Equal(t, tt.expected, outputs["value"])
		})
	}
}

func TestTransform_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]any
		inputs map[string]any
	}{
		{
			name:   "missing transformType",
			data:   map[string]any{"inputKey": "a", "outputKey": "b"},
			inputs: map[string]any{"a": "x"},
		},
		{
			name:   "missing keys",
			data:   map[string]any{"transformType": "json_parse"},
			inputs: map[string]any{},
		},
		{
			name:   "input not present",
			data:   map[string]any{"transformType": "json_parse", "inputKey": "nope", "outputKey": "b"},
			inputs: map[string]any{},
		},
		{
			name:   "unknown transform type",
			data:   map[string]any{"transformType": "reverse", "inputKey": "a", "outputKey": "b"},
			inputs: map[string]any{"a": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.data, tt.inputs)
			assert.Error(t, err)
		})
	}
}

func TestTransform_InputFromVariables(t *testing.T) {
	outputs, err := newExecutor().Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node: domain.Node{ID: "T", Type: domain.NodeType_Transform, Data: map[string]any{
			"transformType": "aggregate",
			"aggregateType": "count",
			"inputKey":      "seeded",
			"outputKey":     "n",
		}},
		Inputs:    map[string]any{},
		Variables: map[string]any{"seeded": []any{"a", "b"}},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(2), outputs.Outputs["n"])
}
