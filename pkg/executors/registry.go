// Package executors assembles the node executor registry: one handler per
// node type, each built from the collaborators it needs.
package executors

import (
	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/executors/apicall"
	"github.com/flowdeck/flowdeck/pkg/executors/condition"
	"github.com/flowdeck/flowdeck/pkg/executors/datasource"
	"github.com/flowdeck/flowdeck/pkg/executors/loop"
	"github.com/flowdeck/flowdeck/pkg/executors/marker"
	"github.com/flowdeck/flowdeck/pkg/executors/merge"
	"github.com/flowdeck/flowdeck/pkg/executors/output"
	"github.com/flowdeck/flowdeck/pkg/executors/prompt"
	"github.com/flowdeck/flowdeck/pkg/executors/rag"
	"github.com/flowdeck/flowdeck/pkg/executors/template"
	"github.com/flowdeck/flowdeck/pkg/executors/transform"
	"github.com/flowdeck/flowdeck/pkg/expressions"
)

// NewRegistry wires every node type to its executor.
func NewRegistry(deps domain.ExecutorDeps, config domain.EngineConfig) *domain.ExecutorRegistry {
	evaluator := expressions.NewEvaluator()

	return domain.NewExecutorRegistry().
		Register(domain.NodeType_Start, marker.NewStartExecutor()).
		Register(domain.NodeType_End, marker.NewEndExecutor()).
		Register(domain.NodeType_DataSource, datasource.NewDataSourceExecutor(datasource.DataSourceExecutorDeps{
			Warehouse: deps.Warehouse,
			Postgres:  deps.Postgres,
			API:       deps.APIQuery,
			Timeout:   config.QueryTimeout,
		})).
		Register(domain.NodeType_Transform, transform.NewTransformExecutor(transform.TransformExecutorDeps{
			Evaluator: evaluator,
		})).
		Register(domain.NodeType_Prompt, prompt.NewPromptExecutor(prompt.PromptExecutorDeps{
			Completion:  deps.Completion,
			Definitions: deps.Definitions,
			Timeout:     config.CompletionTimeout,
		})).
		Register(domain.NodeType_API, apicall.NewAPICallExecutor(apicall.APICallExecutorDeps{
			Caller:      deps.HTTPCaller,
			Definitions: deps.Definitions,
			Timeout:     config.HTTPTimeout,
		})).
		Register(domain.NodeType_RAG, rag.NewRAGExecutor(rag.RAGExecutorDeps{
			Searcher: deps.Vector,
			Limit:    config.DefaultSearchLimit,
			Timeout:  config.SearchTimeout,
		})).
		Register(domain.NodeType_Condition, condition.NewConditionExecutor(condition.ConditionExecutorDeps{
			Evaluator: evaluator,
		})).
		Register(domain.NodeType_Merge, merge.NewMergeExecutor()).
		Register(domain.NodeType_Loop, loop.NewLoopExecutor(loop.LoopExecutorDeps{
			Nested:        deps.Nested,
			MaxIterations: config.MaxLoopIterations,
		})).
		Register(domain.NodeType_Template, template.NewTemplateExecutor()).
		Register(domain.NodeType_Output, output.NewOutputExecutor())
}
