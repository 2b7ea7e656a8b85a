package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// workflowSchema is the wire contract a workflow editor produces. It is the
// only bit-exact boundary the engine honors.
const workflowSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "nodes", "edges"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "version": {"type": "integer", "minimum": 0},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {
            "type": "string",
            "enum": ["start", "end", "dataSource", "transform", "prompt", "output", "loop", "template", "merge", "api", "rag", "condition"]
          },
          "data": {"type": "object"}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "source", "target"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "source": {"type": "string", "minLength": 1},
          "target": {"type": "string", "minLength": 1},
          "sourceOutput": {"type": "string"},
          "targetInput": {"type": "string"}
        }
      }
    }
  }
}`

var compiledWorkflowSchema = jsonschema.MustCompileString("workflow.schema.json", workflowSchema)

// ParseWorkflowDefinition validates raw editor JSON against the wire schema
// and decodes it. Structural problems the schema cannot see (dangling edge
// endpoints, duplicate node ids) surface as ConfigurationError.
func ParseWorkflowDefinition(raw []byte) (WorkflowDefinition, error) {
	var doc any

	if err := json.Unmarshal(raw, &doc); err != nil {
		return WorkflowDefinition{}, fmt.Errorf("workflow definition is not valid JSON: %w", err)
	}

	if err := compiledWorkflowSchema.Validate(doc); err != nil {
		return WorkflowDefinition{}, fmt.Errorf("workflow definition failed schema validation: %w", err)
	}

	var def WorkflowDefinition

	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	if err := decoder.Decode(&def); err != nil {
		return WorkflowDefinition{}, err
	}

	if err := def.Validate(); err != nil {
		return WorkflowDefinition{}, err
	}

	return def, nil
}

// Validate checks the invariants the schema cannot express: node ids are
// unique and every edge endpoint names an existing node.
func (w WorkflowDefinition) Validate() error {
	seen := map[string]struct{}{}

	for _, node := range w.Nodes {
		if _, exists := seen[node.ID]; exists {
			return &ConfigurationError{NodeID: node.ID, Field: "id", Reason: "duplicate node id"}
		}

		seen[node.ID] = struct{}{}
	}

	for _, edge := range w.Edges {
		if _, ok := seen[edge.Source]; !ok {
			return &ConfigurationError{Field: "edges", Reason: fmt.Sprintf("edge %s references unknown source node %s", edge.ID, edge.Source)}
		}

		if _, ok := seen[edge.Target]; !ok {
			return &ConfigurationError{Field: "edges", Reason: fmt.Sprintf("edge %s references unknown target node %s", edge.ID, edge.Target)}
		}
	}

	return nil
}
