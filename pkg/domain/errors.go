package domain

import "fmt"

// GraphCycleError is raised at compile time, before any node runs.
type GraphCycleError struct {
	NodeID string
}

func (e *GraphCycleError) Error() string {
	return fmt.Sprintf("workflow graph contains a cycle involving node %s", e.NodeID)
}

// ConfigurationError marks missing or invalid node configuration. It is fatal
// to the node that carries it.
type ConfigurationError struct {
	NodeID string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("node %s: invalid configuration: %s: %s", e.NodeID, e.Field, e.Reason)
}

// ResourceLimitExceeded marks a bounded resource going out of range, such as
// loop iterations above the cap or prompt token budgets outside 100-4000.
type ResourceLimitExceeded struct {
	NodeID string
	Limit  string
	Value  any
}

func (e *ResourceLimitExceeded) Error() string {
	return fmt.Sprintf("node %s: resource limit exceeded: %s (got %v)", e.NodeID, e.Limit, e.Value)
}

// CollaboratorError wraps a failed or timed-out external call. The raw
// collaborator error is preserved untransformed and reachable via Unwrap.
type CollaboratorError struct {
	NodeID   string
	NodeType NodeType
	Cause    error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("node %s (%s): collaborator call failed: %v", e.NodeID, e.NodeType, e.Cause)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// ExpressionError marks an expression the restricted evaluator rejected as
// unsafe or malformed.
type ExpressionError struct {
	Expression string
	Reason     string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression %q rejected: %s", e.Expression, e.Reason)
}
