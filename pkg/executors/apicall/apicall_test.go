package apicall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	gotRequest domain.HTTPCallRequest
	called     bool
	result     domain.HTTPCallResult
	err        error
}

func (f *fakeCaller) Call(_ context.Context, req domain.HTTPCallRequest) (domain.HTTPCallResult, error) {
	f.called = true
	f.gotRequest = req

	if f.err != nil {
		return domain.HTTPCallResult{}, f.err
	}

	return f.result, nil
}

func newExecutor(caller *fakeCaller, definitions domain.DefinitionStore) *APICallExecutor {
	if definitions == nil {
		definitions = storage.NewMemoryDefinitionStore()
	}

	return NewAPICallExecutor(APICallExecutorDeps{
		Caller:      caller,
		Definitions: definitions,
		Timeout:     time.Minute,
	})
}

func apiNode(data map[string]any) domain.Node {
	return domain.Node{ID: "X", Type: domain.NodeType_API, Data: data}
}

func TestAPICall_SubstitutesDefinitionPlaceholders(t *testing.T) {
	definitions := storage.NewMemoryDefinitionStore()
	definitions.PutAPICall(domain.APICallDefinition{
		ID:     "notify",
		Method: "POST",
		URL:    "https://hooks.example.com/{CHANNEL}",
		Headers: map[string]string{
			"Authorization": "Bearer {TOKEN}",
			"Content-Type":  "application/json",
		},
		Body: `{"total": "{B_output.total}"}`,
	})

	caller := &fakeCaller{
		result: domain.HTTPCallResult{
			StatusCode: 200,
			Body:       map[string]any{"ok": true},
			Headers:    map[string]any{"Content-Type": "application/json"},
		},
	}
	executor := newExecutor(caller, definitions)

	out, err := executor.Execute(context.Background(), domain.ExecutionInput{
		SessionID: "s1",
		Node:      apiNode(map[string]any{"apiCallId": "notify"}),
		Variables: map[string]any{
			"CHANNEL":  "reports",
			"B_output": map[string]any{"total": float64(3)},
		},
		Inputs: map[string]any{"TOKEN": "secret"},
	})
	require.NoError(t, err)

	assert.Equal(t, "POST", caller.gotRequest.Method)
	assert.Equal(t, "https://hooks.example.com/reports", caller.gotRequest.URL)
	assert.Equal(t, "Bearer secret", caller.gotRequest.Headers["Authorization"])
	assert.Equal(t, "application/json", caller.gotRequest.Headers["Content-Type"])
	assert.Equal(t, `{"total": "3"}`, caller.gotRequest.Body)

	result, ok := out.Outputs["apiResult"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 200, result["statusCode"])
	assert.Equal(t, map[string]any{"ok": true}, result["body"])
	assert.Equal(t, map[string]any{"Content-Type": "application/json"}, result["headers"])
	assert.Equal(t, "notify", out.Outputs["apiCallId"])
}

func TestAPICall_InputsShadowVariables(t *testing.T) {
	definitions := storage.NewMemoryDefinitionStore()
	definitions.PutAPICall(domain.APICallDefinition{
		ID:     "lookup",
		Method: "GET",
		URL:    "https://api.example.com/items/{ID}",
	})

	caller := &fakeCaller{}
	executor := newExecutor(caller, definitions)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node:      apiNode(map[string]any{"apiCallId": "lookup"}),
		Variables: map[string]any{"ID": "from-bus"},
		Inputs:    map[string]any{"ID": "from-edge"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/items/from-edge", caller.gotRequest.URL)
}

func TestAPICall_MissingAPICallID(t *testing.T) {
	caller := &fakeCaller{}
	executor := newExecutor(caller, nil)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node: apiNode(map[string]any{}),
	})

	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "apiCallId", configErr.Field)
	assert.False(t, caller.called)
}

func TestAPICall_UnknownDefinition(t *testing.T) {
	caller := &fakeCaller{}
	executor := newExecutor(caller, nil)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node: apiNode(map[string]any{"apiCallId": "missing"}),
	})

	assert.ErrorIs(t, err, domain.ErrAPICallNotFound)
	assert.False(t, caller.called)
}

func TestAPICall_CallerFailureWrapped(t *testing.T) {
	definitions := storage.NewMemoryDefinitionStore()
	definitions.PutAPICall(domain.APICallDefinition{ID: "flaky", Method: "GET", URL: "https://example.com"})

	cause := errors.New("connection refused")
	caller := &fakeCaller{err: cause}
	executor := newExecutor(caller, definitions)

	_, err := executor.Execute(context.Background(), domain.ExecutionInput{
		Node: apiNode(map[string]any{"apiCallId": "flaky"}),
	})

	var collabErr *domain.CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.Equal(t, domain.NodeType_API, collabErr.NodeType)
	assert.ErrorIs(t, err, cause)
}
