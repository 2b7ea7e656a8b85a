package domain

import "errors"

type NodeType string

const (
	NodeType_Start      NodeType = "start"
	NodeType_End        NodeType = "end"
	NodeType_DataSource NodeType = "dataSource"
	NodeType_Transform  NodeType = "transform"
	NodeType_Prompt     NodeType = "prompt"
	NodeType_Output     NodeType = "output"
	NodeType_Loop       NodeType = "loop"
	NodeType_Template   NodeType = "template"
	NodeType_Merge      NodeType = "merge"
	NodeType_API        NodeType = "api"
	NodeType_RAG        NodeType = "rag"
	NodeType_Condition  NodeType = "condition"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrNodeNotFound     = errors.New("node not found in workflow")
)

// WorkflowDefinition is the node/edge graph produced by the workflow editor.
// It is immutable once a run has compiled it.
type WorkflowDefinition struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Node is one typed unit of work. Data holds the type-specific configuration
// (query, transformType, userPromptTemplate, ...) exactly as the editor wrote it.
type Node struct {
	ID   string         `json:"id"`
	Type NodeType       `json:"type"`
	Data map[string]any `json:"data"`
}

// Edge is a directed dependency between two nodes. When SourceOutput or
// TargetInput is empty the whole output map of the source is merged into the
// target's input map.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceOutput string `json:"sourceOutput,omitempty"`
	TargetInput  string `json:"targetInput,omitempty"`
}

func (w WorkflowDefinition) GetNodeByID(nodeID string) (Node, bool) {
	for _, node := range w.Nodes {
		if node.ID == nodeID {
			return node, true
		}
	}

	return Node{}, false
}

func (w WorkflowDefinition) IncomingEdges(nodeID string) []Edge {
	edges := []Edge{}

	for _, edge := range w.Edges {
		if edge.Target == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// StringData reads a string field from the node configuration.
func (n Node) StringData(key string) (string, bool) {
	value, ok := n.Data[key]
	if !ok {
		return "", false
	}

	s, ok := value.(string)

	return s, ok
}
