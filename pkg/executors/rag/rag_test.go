package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	gotQuery string
	gotLimit int
	called   bool
	result   domain.SearchResult
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) (domain.SearchResult, error) {
	f.called = true
	f.gotQuery = query
	f.gotLimit = limit

	if f.err != nil {
		return domain.SearchResult{}, f.err
	}

	return f.result, nil
}

func newExecutor(searcher *fakeSearcher) *RAGExecutor {
	return NewRAGExecutor(RAGExecutorDeps{
		Searcher: searcher,
		Limit:    5,
		Timeout:  time.Minute,
	})
}

func ragNode(data map[string]any) domain.Node {
	return domain.Node{ID: "R", Type: domain.NodeType_RAG, Data: data}
}

func TestRAG_InlineQuery(t *testing.T) {
	searcher := &fakeSearcher{
		result: domain.SearchResult{
			Documents: []domain.SearchDocument{
				{ID: "d1", Content: "first", Score: 0.9, Metadata: map[string]any{"source": "kb"}},
				{ID: "d2", Content: "second", Score: 0.4},
			},
		},
	}
	executor := newExecutor(searcher)

	out, err := executor.Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      ragNode(map[string]any{"query": "orders on {DATE}"}),
		Variables: map[string]any{"DATE": "2026-08-29"},
	})
	require.NoError(t, err)

	assert.Equal(t, "orders on 2026-08-29", searcher.gotQuery)
	assert.Equal(t, 5, searcher.gotLimit)
	assert.Equal(t, "orders on 2026-08-29", out.Outputs["query"])

	documents, ok := out.Outputs["ragResults"].([]any)
	require.True(t, ok)
	require.Len(t, documents, 2)
	assert.Equal(t, map[string]any{
		"id":       "d1",
		"content":  "first",
		"score":    0.9,
		"metadata": map[string]any{"source": "kb"},
	}, documents[0])
}

func TestRAG_PipedQueryFallback(t *testing.T) {
	searcher := &fakeSearcher{}
	executor := newExecutor(searcher)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node:   ragNode(map[string]any{}),
		Inputs: map[string]any{"query": "piped question"},
	})
	require.NoError(t, err)

	assert.Equal(t, "piped question", searcher.gotQuery)
}

func TestRAG_InlineQueryWinsOverPiped(t *testing.T) {
	searcher := &fakeSearcher{}
	executor := newExecutor(searcher)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node:   ragNode(map[string]any{"query": "inline"}),
		Inputs: map[string]any{"query": "piped"},
	})
	require.NoError(t, err)

	assert.Equal(t, "inline", searcher.gotQuery)
}

func TestRAG_NodeLimitOverridesDefault(t *testing.T) {
	searcher := &fakeSearcher{}
	executor := newExecutor(searcher)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node: ragNode(map[string]any{"query": "q", "limit": float64(12)}),
	})
	require.NoError(t, err)

	assert.Equal(t, 12, searcher.gotLimit)
}

func TestRAG_MissingQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	executor := newExecutor(searcher)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node: ragNode(map[string]any{}),
	})

	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "query", configErr.Field)
	assert.False(t, searcher.called)
}

func TestRAG_SearcherFailureWrapped(t *testing.T) {
	cause := errors.New("index offline")
	searcher := &fakeSearcher{err: cause}
	executor := newExecutor(searcher)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node: ragNode(map[string]any{"query": "q"}),
	})

	var collabErr *domain.CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.Equal(t, "R", collabErr.NodeID)
	assert.ErrorIs(t, err, cause)
}
