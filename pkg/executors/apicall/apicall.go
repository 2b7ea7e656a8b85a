package apicall

import (
	"context"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
)

// APICallExecutor looks up a stored API call definition, substitutes
// parameters into its URL, headers and body, and invokes the HTTP
// collaborator.
type APICallExecutor struct {
	caller      domain.HTTPCaller
	definitions domain.DefinitionStore
	timeout     time.Duration
}

type APICallExecutorDeps struct {
	Caller      domain.HTTPCaller
	Definitions domain.DefinitionStore
	Timeout     time.Duration
}

func NewAPICallExecutor(deps APICallExecutorDeps) *APICallExecutor {
	return &APICallExecutor{
		caller:      deps.Caller,
		definitions: deps.Definitions,
		timeout:     deps.Timeout,
	}
}

type APICallParams struct {
	APICallID string `json:"apiCallId"`
}

func (e *APICallExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := APICallParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.APICallID == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "apiCallId", Reason: "is required"}
	}

	definition, err := e.definitions.GetAPICall(ctx, p.APICallID)
	if err != nil {
		return domain.ExecutionOutput{}, &domain.CollaboratorError{NodeID: input.Node.ID, NodeType: input.Node.Type, Cause: err}
	}

	namespace := map[string]any{}

	for key, value := range input.Variables {
		namespace[key] = value
	}

	for key, value := range input.Inputs {
		namespace[key] = value
	}

	headers := make(map[string]string, len(definition.Headers))

	for key, value := range definition.Headers {
		headers[key] = engine.Resolve(value, namespace)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.caller.Call(callCtx, domain.HTTPCallRequest{
		Method:  definition.Method,
		URL:     engine.Resolve(definition.URL, namespace),
		Headers: headers,
		Body:    engine.Resolve(definition.Body, namespace),
	})
	if err != nil {
		return domain.ExecutionOutput{}, &domain.CollaboratorError{NodeID: input.Node.ID, NodeType: input.Node.Type, Cause: err}
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"apiResult": map[string]any{
				"statusCode": result.StatusCode,
				"body":       result.Body,
				"headers":    result.Headers,
			},
			"apiCallId": p.APICallID,
		},
	}, nil
}
