package engine

import (
	"context"
	"fmt"
	"time"

	"dario.cat/mergo"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Engine drives one session through its compiled order: resolve inputs from
// the session data bus, invoke the node's executor, persist outputs, append
// the per-node execution record, repeat. Execution within a session is
// strictly sequential; sessions are isolated by id in every store.
type Engine struct {
	registry *domain.ExecutorRegistry
	sessions *SessionManager
	records  domain.RecordStore
	bus      domain.DataBus
	config   domain.EngineConfig
}

type EngineDeps struct {
	Registry     *domain.ExecutorRegistry
	SessionStore domain.SessionStore
	RecordStore  domain.RecordStore
	DataBus      domain.DataBus
	Config       domain.EngineConfig
}

func NewEngine(deps EngineDeps) *Engine {
	return &Engine{
		registry: deps.Registry,
		sessions: NewSessionManager(deps.SessionStore),
		records:  deps.RecordStore,
		bus:      deps.DataBus,
		config:   deps.Config,
	}
}

// SetRegistry closes the construction cycle between the engine and the loop
// executor: the registry needs the engine as its NestedRunner, the engine
// needs the registry to dispatch.
func (e *Engine) SetRegistry(registry *domain.ExecutorRegistry) {
	e.registry = registry
}

func (e *Engine) Sessions() *SessionManager {
	return e.sessions
}

func (e *Engine) Records() domain.RecordStore {
	return e.records
}

// RunOptions configures one orchestrator pass. Policy is always explicit;
// Seed entries land on the data bus before the first node runs.
type RunOptions struct {
	Policy domain.FailurePolicy
	Seed   map[string]any
}

type RunResult struct {
	SessionID   string               `json:"session_id"`
	Status      domain.SessionStatus `json:"status"`
	FinalOutput map[string]any       `json:"final_output,omitempty"`
	NodeErrors  map[string]string    `json:"node_errors,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// ExecuteSession runs a pending session to a terminal state. Compile and
// pre-flight failures abort before any node runs; per-node failures follow
// the run's FailurePolicy. Cancellation is cooperative and observed between
// node executions.
func (e *Engine) ExecuteSession(ctx context.Context, def domain.WorkflowDefinition, sessionID string, opts RunOptions) (RunResult, error) {
	if opts.Policy == "" {
		opts.Policy = domain.AbortOnError
	}

	graph, err := Compile(def)
	if err != nil {
		e.sessions.finish(ctx, sessionID, domain.SessionStatusFailed, err.Error())
		return RunResult{SessionID: sessionID, Status: domain.SessionStatusFailed, Error: err.Error()}, err
	}

	if err := e.sessions.markRunning(ctx, sessionID); err != nil {
		return RunResult{}, err
	}

	log.Info().
		Str("session_id", sessionID).
		Str("workflow_id", def.ID).
		Int("node_count", len(graph.Order)).
		Str("failure_policy", string(opts.Policy)).
		Msg("Executing workflow session")

	if err := e.seedBus(ctx, sessionID, opts.Seed); err != nil {
		e.sessions.finish(ctx, sessionID, domain.SessionStatusFailed, err.Error())
		return RunResult{SessionID: sessionID, Status: domain.SessionStatusFailed, Error: err.Error()}, err
	}

	nodeErrors := map[string]string{}
	var finalOutput map[string]any

	for _, nodeID := range graph.Order {
		if ctx.Err() != nil || e.sessions.isCancelRequested(ctx, sessionID) {
			e.sessions.finish(ctx, sessionID, domain.SessionStatusCancelled, "")

			log.Info().Str("session_id", sessionID).Str("node_id", nodeID).Msg("Session cancelled before node")

			return RunResult{SessionID: sessionID, Status: domain.SessionStatusCancelled, NodeErrors: nodeErrors}, nil
		}

		node, _ := graph.Node(nodeID)

		_, outputs, err := e.executeNode(ctx, graph, sessionID, node)
		if err != nil {
			nodeErrors[nodeID] = err.Error()

			if opts.Policy == domain.AbortOnError {
				e.sessions.finish(ctx, sessionID, domain.SessionStatusFailed, err.Error())

				return RunResult{
					SessionID:  sessionID,
					Status:     domain.SessionStatusFailed,
					NodeErrors: nodeErrors,
					Error:      err.Error(),
				}, err
			}

			// ContinueOnError: downstream nodes see this node's output as absent.
			continue
		}

		finalOutput = outputs
	}

	e.sessions.finish(ctx, sessionID, domain.SessionStatusCompleted, "")

	log.Info().Str("session_id", sessionID).Msg("Workflow session completed")

	return RunResult{
		SessionID:   sessionID,
		Status:      domain.SessionStatusCompleted,
		FinalOutput: finalOutput,
		NodeErrors:  nodeErrors,
	}, nil
}

// SingleNodeResult is the interactive-editing contract: one node's resolved
// input and produced output, with the rest of the graph untouched.
type SingleNodeResult struct {
	NodeID  string         `json:"node_id"`
	Input   map[string]any `json:"input"`
	Output  map[string]any `json:"output"`
	Elapsed time.Duration  `json:"elapsed"`
}

// ExecuteNode runs one node against the session's persisted bus. Inputs are
// rebuilt through the same edge-mapping path a full run uses, so a previously
// executed upstream feeds this node exactly as it would mid-run.
func (e *Engine) ExecuteNode(ctx context.Context, def domain.WorkflowDefinition, sessionID, nodeID string) (SingleNodeResult, error) {
	graph, err := Compile(def)
	if err != nil {
		return SingleNodeResult{}, err
	}

	node, ok := graph.Node(nodeID)
	if !ok {
		return SingleNodeResult{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}

	startedAt := time.Now()

	inputs, outputs, err := e.executeNode(ctx, graph, sessionID, node)
	if err != nil {
		return SingleNodeResult{}, err
	}

	return SingleNodeResult{
		NodeID:  nodeID,
		Input:   inputs,
		Output:  outputs,
		Elapsed: time.Since(startedAt),
	}, nil
}

// executeNode performs one attempt: record running, invoke, persist outputs,
// record success or error.
func (e *Engine) executeNode(ctx context.Context, graph *CompiledGraph, sessionID string, node domain.Node) (map[string]any, map[string]any, error) {
	inputs, err := e.resolveNodeInput(ctx, graph, sessionID, node)
	if err != nil {
		return nil, nil, err
	}

	variables, err := e.buildNamespace(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	record := domain.NodeExecutionRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    domain.NodeExecutionStatusRunning,
		Input:     inputs,
		StartedAt: time.Now().UTC(),
	}

	if err := e.records.AppendRecord(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("failed to append execution record: %w", err)
	}

	executor, err := e.registry.Get(node.Type)
	if err != nil {
		e.finishRecord(ctx, record, nil, err)
		return nil, nil, &domain.ConfigurationError{NodeID: node.ID, Field: "type", Reason: err.Error()}
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("node_id", node.ID).
		Str("node_type", string(node.Type)).
		Msg("Executing node")

	result, err := executor.Execute(ctx, domain.ExecutionInput{
		SessionID: sessionID,
		Node:      node,
		Inputs:    inputs,
		Variables: variables,
	})
	if err != nil {
		e.finishRecord(ctx, record, nil, err)

		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("node_id", node.ID).
			Str("node_type", string(node.Type)).
			Msg("Node execution failed")

		return inputs, nil, err
	}

	if err := e.writeOutputs(ctx, sessionID, node, result.Outputs); err != nil {
		e.finishRecord(ctx, record, nil, err)
		return inputs, nil, err
	}

	e.finishRecord(ctx, record, result.Outputs, nil)

	log.Info().
		Str("session_id", sessionID).
		Str("node_id", node.ID).
		Str("node_type", string(node.Type)).
		Dur("duration", time.Since(record.StartedAt)).
		Msg("Node executed")

	return inputs, result.Outputs, nil
}

// resolveNodeInput applies each incoming edge's sourceOutput -> targetInput
// mapping against the bus, or merges the source's whole output map when the
// edge names neither end. Sources without a bus entry (failed or skipped
// under ContinueOnError) contribute nothing.
func (e *Engine) resolveNodeInput(ctx context.Context, graph *CompiledGraph, sessionID string, node domain.Node) (map[string]any, error) {
	inputs := map[string]any{}

	for _, edge := range graph.IncomingEdges(node.ID) {
		entry, err := e.bus.Get(ctx, sessionID, domain.NodeOutputKey(edge.Source))
		if err != nil {
			if err == domain.ErrDataKeyNotFound {
				continue
			}

			return nil, fmt.Errorf("failed to read bus entry for node %s: %w", edge.Source, err)
		}

		value, err := entry.DataValue.Decode()
		if err != nil {
			return nil, fmt.Errorf("corrupt bus entry %s: %w", entry.DataKey, err)
		}

		sourceOutputs, _ := value.(map[string]any)

		if edge.SourceOutput == "" && edge.TargetInput == "" {
			for key, v := range sourceOutputs {
				if err := foldInput(inputs, key, v); err != nil {
					return nil, err
				}
			}

			continue
		}

		picked := value
		if edge.SourceOutput != "" {
			picked = sourceOutputs[edge.SourceOutput]
		}

		targetKey := edge.TargetInput
		if targetKey == "" {
			targetKey = edge.SourceOutput
		}

		if err := foldInput(inputs, targetKey, picked); err != nil {
			return nil, err
		}
	}

	return inputs, nil
}

// foldInput sets inputs[key], deep-merging when two edges deliver maps under
// the same key. Non-map collisions keep the later edge's value.
func foldInput(inputs map[string]any, key string, value any) error {
	existing, ok := inputs[key].(map[string]any)
	if !ok {
		inputs[key] = value
		return nil
	}

	incoming, ok := value.(map[string]any)
	if !ok {
		inputs[key] = value
		return nil
	}

	if err := mergo.Merge(&existing, incoming, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge inputs for key %s: %w", key, err)
	}

	inputs[key] = existing

	return nil
}

// buildNamespace assembles the variable namespace: every bus entry for the
// session, decoded, keyed by its dataKey. Engine-written "<id>_output" maps
// are reachable by dotted path from the resolver.
func (e *Engine) buildNamespace(ctx context.Context, sessionID string) (map[string]any, error) {
	entries, err := e.bus.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session data: %w", err)
	}

	namespace := make(map[string]any, len(entries))

	for _, entry := range entries {
		value, err := entry.DataValue.Decode()
		if err != nil {
			return nil, fmt.Errorf("corrupt bus entry %s: %w", entry.DataKey, err)
		}

		namespace[entry.DataKey] = value
	}

	return namespace, nil
}

// writeOutputs persists the node's output map under "<id>_output", and when
// the node declares an outputKey additionally publishes that single value
// under the declared key so later templates can reference it directly.
func (e *Engine) writeOutputs(ctx context.Context, sessionID string, node domain.Node, outputs map[string]any) error {
	payload, err := domain.NewPayload(outputs)
	if err != nil {
		return fmt.Errorf("failed to encode outputs of node %s: %w", node.ID, err)
	}

	now := time.Now().UTC()

	err = e.bus.Put(ctx, domain.SessionDataEntry{
		SessionID: sessionID,
		DataKey:   domain.NodeOutputKey(node.ID),
		DataValue: payload,
		CreatedBy: node.ID,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to write outputs of node %s: %w", node.ID, err)
	}

	outputKey, ok := node.StringData("outputKey")
	if !ok || outputKey == "" {
		return nil
	}

	value, ok := outputs[outputKey]
	if !ok {
		return nil
	}

	valuePayload, err := domain.NewPayload(value)
	if err != nil {
		return err
	}

	return e.bus.Put(ctx, domain.SessionDataEntry{
		SessionID: sessionID,
		DataKey:   outputKey,
		DataValue: valuePayload,
		CreatedBy: node.ID,
		CreatedAt: now,
	})
}

func (e *Engine) seedBus(ctx context.Context, sessionID string, seed map[string]any) error {
	now := time.Now().UTC()

	defaults := map[string]any{
		"DATE": now.Format("2006-01-02"),
		"TIME": now.Format("15:04:05"),
	}

	for key, value := range seed {
		defaults[key] = value
	}

	for key, value := range defaults {
		payload, err := domain.NewPayload(value)
		if err != nil {
			return fmt.Errorf("failed to encode seed value %s: %w", key, err)
		}

		err = e.bus.Put(ctx, domain.SessionDataEntry{
			SessionID: sessionID,
			DataKey:   key,
			DataValue: payload,
			CreatedBy: "caller",
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("failed to seed bus key %s: %w", key, err)
		}
	}

	return nil
}

func (e *Engine) finishRecord(ctx context.Context, record domain.NodeExecutionRecord, outputs map[string]any, execErr error) {
	now := time.Now().UTC()
	record.CompletedAt = &now

	if execErr != nil {
		record.Status = domain.NodeExecutionStatusError
		record.Error = execErr.Error()
	} else {
		record.Status = domain.NodeExecutionStatusSuccess
		record.Output = outputs
	}

	if err := e.records.UpdateRecord(ctx, record); err != nil {
		log.Error().Err(err).
			Str("session_id", record.SessionID).
			Str("node_id", record.NodeID).
			Msg("Failed to update execution record")
	}
}

// RunNested executes a child definition sequentially inside the caller's
// session without touching the session bus: outputs stay in an in-memory
// namespace scoped to the pass. Loop nodes use this for their per-item work.
func (e *Engine) RunNested(ctx context.Context, def domain.WorkflowDefinition, sessionID string, seed map[string]any) (map[string]any, error) {
	graph, err := Compile(def)
	if err != nil {
		return nil, err
	}

	local := map[string]any{}

	for key, value := range seed {
		local[key] = value
	}

	var lastOutputs map[string]any

	for _, nodeID := range graph.Order {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		node, _ := graph.Node(nodeID)

		inputs := map[string]any{}

		for _, edge := range graph.IncomingEdges(nodeID) {
			sourceValue, ok := local[domain.NodeOutputKey(edge.Source)]
			if !ok {
				continue
			}

			sourceOutputs, _ := sourceValue.(map[string]any)

			if edge.SourceOutput == "" && edge.TargetInput == "" {
				for key, v := range sourceOutputs {
					inputs[key] = v
				}

				continue
			}

			picked := sourceValue
			if edge.SourceOutput != "" {
				picked = sourceOutputs[edge.SourceOutput]
			}

			targetKey := edge.TargetInput
			if targetKey == "" {
				targetKey = edge.SourceOutput
			}

			inputs[targetKey] = picked
		}

		executor, err := e.registry.Get(node.Type)
		if err != nil {
			return nil, &domain.ConfigurationError{NodeID: node.ID, Field: "type", Reason: err.Error()}
		}

		result, err := executor.Execute(ctx, domain.ExecutionInput{
			SessionID: sessionID,
			Node:      node,
			Inputs:    inputs,
			Variables: local,
		})
		if err != nil {
			return nil, err
		}

		local[domain.NodeOutputKey(node.ID)] = result.Outputs
		lastOutputs = result.Outputs
	}

	return lastOutputs, nil
}
