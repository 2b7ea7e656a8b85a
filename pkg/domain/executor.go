package domain

import (
	"context"
	"fmt"
)

// ExecutionInput is what the orchestrator hands a node executor: the node's
// configuration, the input map resolved from incoming edges, and the variable
// namespace visible to templates at this point of the run.
type ExecutionInput struct {
	SessionID string
	Node      Node
	Inputs    map[string]any
	Variables map[string]any
}

// ExecutionOutput is the named output map a node declares.
type ExecutionOutput struct {
	Outputs map[string]any
}

// NodeExecutor performs one node's work given resolved inputs. Executors are
// pure with respect to engine state; external effects go through the
// collaborator interfaces they were constructed with.
type NodeExecutor interface {
	Execute(ctx context.Context, input ExecutionInput) (ExecutionOutput, error)
}

// NestedRunner executes a child definition within the same session, used by
// loop nodes for their per-item passes.
type NestedRunner interface {
	RunNested(ctx context.Context, def WorkflowDefinition, sessionID string, seed map[string]any) (map[string]any, error)
}

// ExecutorDeps carries every collaborator an executor may need. Each executor
// picks the subset it uses; construction fails fast if a required collaborator
// is missing.
type ExecutorDeps struct {
	Postgres    QueryService
	Warehouse   QueryService
	APIQuery    QueryService
	Completion  CompletionService
	HTTPCaller  HTTPCaller
	Vector      VectorSearcher
	Definitions DefinitionStore
	Nested      NestedRunner
}

// ExecutorRegistry maps node types to their executors.
type ExecutorRegistry struct {
	executors map[NodeType]NodeExecutor
}

func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{
		executors: map[NodeType]NodeExecutor{},
	}
}

func (r *ExecutorRegistry) Register(nodeType NodeType, executor NodeExecutor) *ExecutorRegistry {
	r.executors[nodeType] = executor

	return r
}

func (r *ExecutorRegistry) Get(nodeType NodeType) (NodeExecutor, error) {
	executor, ok := r.executors[nodeType]
	if !ok {
		return nil, fmt.Errorf("no executor registered for node type %q", nodeType)
	}

	return executor, nil
}

func (r *ExecutorRegistry) Types() []NodeType {
	types := make([]NodeType, 0, len(r.executors))

	for nodeType := range r.executors {
		types = append(types, nodeType)
	}

	return types
}
