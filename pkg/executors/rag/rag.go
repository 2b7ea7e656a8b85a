package rag

import (
	"context"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
)

// RAGExecutor calls the vector search collaborator with the resolved query.
// The query comes from node configuration or is piped in via the "query"
// input.
type RAGExecutor struct {
	searcher domain.VectorSearcher
	limit    int
	timeout  time.Duration
}

type RAGExecutorDeps struct {
	Searcher domain.VectorSearcher
	Limit    int
	Timeout  time.Duration
}

func NewRAGExecutor(deps RAGExecutorDeps) *RAGExecutor {
	return &RAGExecutor{
		searcher: deps.Searcher,
		limit:    deps.Limit,
		timeout:  deps.Timeout,
	}
}

type RAGParams struct {
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (e *RAGExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := RAGParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.Query == "" {
		if piped, ok := input.Inputs["query"].(string); ok {
			p.Query = piped
		}
	}

	if p.Query == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "query", Reason: "is required (inline or piped)"}
	}

	limit := p.Limit
	if limit <= 0 {
		limit = e.limit
	}

	query := engine.Resolve(p.Query, input.Variables)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.searcher.Search(callCtx, query, limit)
	if err != nil {
		return domain.ExecutionOutput{}, &domain.CollaboratorError{NodeID: input.Node.ID, NodeType: input.Node.Type, Cause: err}
	}

	documents := make([]any, len(result.Documents))

	for i, document := range result.Documents {
		documents[i] = map[string]any{
			"id":       document.ID,
			"content":  document.Content,
			"score":    document.Score,
			"metadata": document.Metadata,
		}
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"ragResults": documents,
			"query":      query,
		},
	}, nil
}
