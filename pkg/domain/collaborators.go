package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPromptNotFound  = errors.New("prompt definition not found")
	ErrAPICallNotFound = errors.New("api call definition not found")
)

// QueryResult is the tabular shape every data source collaborator returns.
type QueryResult struct {
	Rows          []map[string]any `json:"rows"`
	Columns       []ColumnSchema   `json:"columns"`
	ExecutionTime time.Duration    `json:"execution_time"`
	Truncated     bool             `json:"truncated"`
}

type ColumnSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryService returns tabular rows for a query string. Implementations wrap
// the relational store and the warehouse; both honor the context deadline.
type QueryService interface {
	Query(ctx context.Context, query string) (QueryResult, error)
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
}

type CompletionResult struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// CompletionService is the text-completion collaborator behind prompt nodes.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

type HTTPCallRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

type HTTPCallResult struct {
	StatusCode int            `json:"status_code"`
	Body       any            `json:"body"`
	Headers    map[string]any `json:"headers"`
}

// HTTPCaller performs the generic outbound call behind api nodes.
type HTTPCaller interface {
	Call(ctx context.Context, req HTTPCallRequest) (HTTPCallResult, error)
}

type SearchResult struct {
	Documents []SearchDocument `json:"documents"`
}

type SearchDocument struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VectorSearcher is the document search collaborator behind rag nodes.
type VectorSearcher interface {
	Search(ctx context.Context, query string, limit int) (SearchResult, error)
}

// PromptDefinition is a stored prompt referenced by promptId from prompt nodes.
type PromptDefinition struct {
	ID           string `json:"id" bson:"_id"`
	Name         string `json:"name" bson:"name"`
	SystemPrompt string `json:"system_prompt" bson:"system_prompt"`
	UserPrompt   string `json:"user_prompt" bson:"user_prompt"`
}

// APICallDefinition is a stored HTTP call referenced by apiCallId from api nodes.
// URL, headers and body may carry {VAR} placeholders substituted at call time.
type APICallDefinition struct {
	ID      string            `json:"id" bson:"_id"`
	Name    string            `json:"name" bson:"name"`
	Method  string            `json:"method" bson:"method"`
	URL     string            `json:"url" bson:"url"`
	Headers map[string]string `json:"headers,omitempty" bson:"headers,omitempty"`
	Body    string            `json:"body,omitempty" bson:"body,omitempty"`
}

// DefinitionStore resolves stored prompt and API call definitions.
type DefinitionStore interface {
	GetPrompt(ctx context.Context, promptID string) (PromptDefinition, error)
	GetAPICall(ctx context.Context, apiCallID string) (APICallDefinition, error)
}
