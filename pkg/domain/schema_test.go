package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkflowDefinition_Valid(t *testing.T) {
	raw := []byte(`{
		"id": "wf-1",
		"version": 2,
		"nodes": [
			{"id": "A", "type": "dataSource", "data": {"query": "SELECT 1", "source": "postgresql"}},
			{"id": "B", "type": "output", "data": {}}
		],
		"edges": [
			{"id": "e1", "source": "A", "target": "B", "sourceOutput": "data", "targetInput": "rows"}
		]
	}`)

	def, err := ParseWorkflowDefinition(raw)
	require.NoError(t, err)

	assert.Equal(t, "wf-1", def.ID)
	assert.Equal(t, 2, def.Version)
	require.Len(t, def.Nodes, 2)
	assert.Equal(t, NodeType_DataSource, def.Nodes[0].Type)
	assert.Equal(t, "SELECT 1", def.Nodes[0].Data["query"])
	require.Len(t, def.Edges, 1)
	assert.Equal(t, "data", def.Edges[0].SourceOutput)
	assert.Equal(t, "rows", def.Edges[0].TargetInput)
}

func TestParseWorkflowDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing id", `{"nodes": [], "edges": []}`},
		{"unknown node type", `{"id": "wf", "nodes": [{"id": "A", "type": "quantum"}], "edges": []}`},
		{"empty node id", `{"id": "wf", "nodes": [{"id": "", "type": "start"}], "edges": []}`},
		{"edge without target", `{"id": "wf", "nodes": [{"id": "A", "type": "start"}], "edges": [{"id": "e", "source": "A"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorkflowDefinition([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestWorkflowDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     WorkflowDefinition
		wantErr bool
	}{
		{
			name: "valid",
			def: WorkflowDefinition{
				ID: "wf",
				Nodes: []Node{
					{ID: "A", Type: NodeType_Start},
					{ID: "B", Type: NodeType_End},
				},
				Edges: []Edge{{ID: "e", Source: "A", Target: "B"}},
			},
		},
		{
			name: "duplicate node id",
			def: WorkflowDefinition{
				ID: "wf",
				Nodes: []Node{
					{ID: "A", Type: NodeType_Start},
					{ID: "A", Type: NodeType_End},
				},
			},
			wantErr: true,
		},
		{
			name: "dangling edge source",
			def: WorkflowDefinition{
				ID:    "wf",
				Nodes: []Node{{ID: "A", Type: NodeType_Start}},
				Edges: []Edge{{ID: "e", Source: "ghost", Target: "A"}},
			},
			wantErr: true,
		},
		{
			name: "dangling edge target",
			def: WorkflowDefinition{
				ID:    "wf",
				Nodes: []Node{{ID: "A", Type: NodeType_Start}},
				Edges: []Edge{{ID: "e", Source: "A", Target: "ghost"}},
			},
			wantErr: true,
		},
		{
			name: "empty graph",
			def:  WorkflowDefinition{ID: "wf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()

			if tt.wantErr {
				var configErr *ConfigurationError
				require.True(t, errors.As(err, &configErr))
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestPayload_RoundTrip(t *testing.T) {
	payload, err := NewPayload(map[string]any{"count": 3, "tags": []string{"a"}})
	require.NoError(t, err)

	value, err := payload.Decode()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"count": float64(3), "tags": []any{"a"}}, value)
}

func TestPayload_Empty(t *testing.T) {
	value, err := Payload(nil).Decode()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestNodeOutputKey(t *testing.T) {
	assert.Equal(t, "B_output", NodeOutputKey("B"))
}
